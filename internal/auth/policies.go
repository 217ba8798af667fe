package auth

import (
	"fmt"

	"comuna-portal/internal/logger"

	"github.com/casbin/casbin/v2"
)

// SeedDefaultPolicies ensures that the application has a baseline set of
// authorization rules. It checks if each default policy exists before
// adding it, making the operation idempotent and safe to run on every
// application start.
func SeedDefaultPolicies(e casbin.IEnforcer, log logger.Logger) {
	log.Info("Seeding default authorization policies...")

	// Anonymous visitors can browse the public portal and reach the auth
	// pages. Citizens additionally manage their own business and
	// publications. Admins get the moderation console.
	policies := [][]string{
		// Public surface.
		{"anonymous", "/", "GET"},
		{"anonymous", "/noticias", "GET"},
		{"anonymous", "/noticia/*", "GET"},
		{"anonymous", "/avisos", "GET"},
		{"anonymous", "/eventos", "GET"},
		{"anonymous", "/negocios", "GET"},
		{"anonymous", "/negocios/*", "GET"},
		{"anonymous", "/auth/login", "GET|POST"},
		{"anonymous", "/auth/register", "GET|POST"},
		{"anonymous", "/static/*", "GET"},
		{"anonymous", "/uploads/*", "GET"},
		{"anonymous", "/robots.txt", "GET"},
		{"anonymous", "/sitemap.xml", "GET"},

		// Citizens manage their profile, publications and directory entry.
		{"ciudadano", "/auth/logout", "POST"},
		{"ciudadano", "/ciudadano/*", "GET|POST"},
		{"ciudadano", "/negocios/registrar", "GET|POST"},

		// Admins moderate the directory and author site-wide content.
		{"admin", "/admin", "GET"},
		{"admin", "/admin/*", "GET|POST"},
	}
	for _, p := range policies {
		if has, _ := e.HasPolicy(p); !has {
			if _, err := e.AddPolicy(p); err != nil {
				log.Error(err, fmt.Sprintf("Failed to add policy %v", p))
			}
		}
	}

	// Citizens inherit the anonymous permissions, admins inherit the
	// citizen permissions.
	inheritances := [][2]string{
		{"ciudadano", "anonymous"},
		{"admin", "ciudadano"},
	}
	for _, g := range inheritances {
		if has, _ := e.HasRoleForUser(g[0], g[1]); !has {
			if _, err := e.AddRoleForUser(g[0], g[1]); err != nil {
				log.Error(err, fmt.Sprintf("Failed to add role %s -> %s", g[0], g[1]))
			}
		}
	}
	log.Info("Policy seeding complete.")
}
