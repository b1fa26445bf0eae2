package middleware

import (
	"net/http"
	"net/url"
	"strings"
)

// OriginMatcher decide se um Origin pode falar com o portal. Entradas aceitam
// correspondência exata (https://bailaconsara.es) ou subdomínio com *.
// (*.bailaconsara.es, que não casa a raiz).
type OriginMatcher struct {
	exact    map[string]struct{}
	suffixes []string
}

// NewOriginMatcher monta o matcher a partir de ALLOW_ORIGINS.
func NewOriginMatcher(origins []string) *OriginMatcher {
	m := &OriginMatcher{exact: make(map[string]struct{}, len(origins))}
	for _, entry := range origins {
		e := strings.TrimSpace(entry)
		switch {
		case e == "":
		case strings.HasPrefix(e, "*."):
			m.suffixes = append(m.suffixes, strings.ToLower(strings.TrimPrefix(e, "*")))
		default:
			m.exact[e] = struct{}{}
		}
	}
	return m
}

// Allowed informa se origin está liberado.
func (m *OriginMatcher) Allowed(origin string) bool {
	if origin == "" {
		return false
	}
	if _, ok := m.exact[origin]; ok {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, suf := range m.suffixes {
		if strings.HasSuffix(host, suf) && host != strings.TrimPrefix(suf, ".") {
			return true
		}
	}
	return false
}

// CORS libera credenciais apenas para origens conhecidas; preflight responde 204.
func CORS(matcher *OriginMatcher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); matcher.Allowed(origin) {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Set("Access-Control-Allow-Headers", "Content-Type, X-Requested-With")
				h.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
