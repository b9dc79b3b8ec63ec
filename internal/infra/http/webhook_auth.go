package http

import (
	"crypto/subtle"
	"net/http"

	chi "github.com/go-chi/chi/v5"
)

// SecretHeader: заголовок, которым Telegram передаёт secret_token вебхука.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// WebhookSecretMiddleware пропускает запрос, если секрет из пути {secret}
// или из заголовка SecretHeader совпадает с настроенным. Иначе 404.
func WebhookSecretMiddleware(secret string) func(http.Handler) http.Handler {
	want := []byte(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := chi.URLParam(r, "secret")
			if got == "" {
				got = r.Header.Get(SecretHeader)
			}
			if len(want) == 0 || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				http.NotFound(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
