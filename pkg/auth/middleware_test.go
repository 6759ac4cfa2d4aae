/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/onsi/gomega"
)

func newAuthRouter(apiKey string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(NewAPIKeyAuthenticator(apiKey).Middleware())
	router.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func doRequest(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestMiddlewareMissingHeader(t *testing.T) {
	g := gomega.NewWithT(t)
	router := newAuthRouter("secret")

	w := doRequest(router, "")
	g.Expect(w.Code).To(gomega.Equal(http.StatusUnauthorized))
	g.Expect(w.Body.String()).To(gomega.ContainSubstring("Missing authorization header"))
}

func TestMiddlewareWrongScheme(t *testing.T) {
	g := gomega.NewWithT(t)
	router := newAuthRouter("secret")

	w := doRequest(router, "Basic c2VjcmV0")
	g.Expect(w.Code).To(gomega.Equal(http.StatusUnauthorized))
	g.Expect(w.Body.String()).To(gomega.ContainSubstring("Bearer scheme"))
}

func TestMiddlewareInvalidKey(t *testing.T) {
	g := gomega.NewWithT(t)
	router := newAuthRouter("secret")

	w := doRequest(router, "Bearer wrong")
	g.Expect(w.Code).To(gomega.Equal(http.StatusUnauthorized))
	g.Expect(w.Body.String()).To(gomega.ContainSubstring("Invalid API key"))
}

func TestMiddlewareValidKey(t *testing.T) {
	g := gomega.NewWithT(t)
	router := newAuthRouter("secret")

	w := doRequest(router, "Bearer secret")
	g.Expect(w.Code).To(gomega.Equal(http.StatusOK))
}
