package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-member-api/internal/application/mail"
	"github.com/go-member-api/internal/application/member"
	"github.com/go-member-api/internal/application/token"
	"github.com/go-member-api/internal/application/verification"
	"github.com/go-member-api/internal/config"
	"github.com/go-member-api/internal/domain"
	"github.com/go-member-api/internal/infrastructure/dynamo"
	"github.com/go-member-api/internal/infrastructure/google"
	jwtinfra "github.com/go-member-api/internal/infrastructure/jwt"
	redisinfra "github.com/go-member-api/internal/infrastructure/redis"
	"github.com/go-member-api/internal/infrastructure/smtp"
	"github.com/go-member-api/internal/transport/http/handler"
	appmiddleware "github.com/go-member-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	MemberRepo *dynamo.MemberRepo
	CodeStore  *redisinfra.Store
	Mailer     smtp.Mailer
	Signer     *jwtinfra.Signer
	Google     *google.Verifier
}

// NewRouter builds and returns the application router. Background workers
// started here stop when ctx is cancelled.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	if cfg.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		// The refresh token travels in a cookie.
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10 per client IP (RemoteAddr, see TrustProxy).
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)
	go func() {
		<-ctx.Done()
		sensitiveRL.Stop()
	}()

	mailSender := mail.NewSender(deps.Mailer)
	tokenSvc := token.NewService(token.ServiceDeps{
		Signer:       deps.Signer,
		AccessTTL:    cfg.AccessTokenTTL,
		RefreshTTL:   cfg.RefreshTokenTTL,
		SecureCookie: cfg.SecureCookies(),
	})
	verificationSvc := verification.NewService(verification.ServiceDeps{
		Store: deps.CodeStore,
		Mail:  mailSender,
		TTL:   cfg.VerificationTTL,
	})
	memberSvc := member.NewService(member.ServiceDeps{
		MemberRepo:   deps.MemberRepo,
		Tokens:       tokenSvc,
		Verification: verificationSvc,
		Mail:         mailSender,
	})

	healthH := handler.NewHealthHandler()
	memberH := handler.NewMemberHandler(memberSvc, verificationSvc, tokenSvc, deps.Google)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health-check", healthH.Ping)

		r.Route("/members", func(r chi.Router) {
			// ── Public routes (no auth) ──────────────────────────────────────
			r.Get("/check-id/{userID}", memberH.CheckID)
			r.Get("/check-email", memberH.CheckEmail)
			r.With(sensitiveRL.Limit).Post("/auth/code", memberH.SendCode)
			r.With(sensitiveRL.Limit).Post("/auth/check", memberH.CheckCode)
			r.Post("/signup", memberH.SignUp)
			r.With(sensitiveRL.Limit).Post("/signin", memberH.SignIn)
			r.With(sensitiveRL.Limit).Post("/signin/google", memberH.GoogleSignIn)
			r.Post("/token", memberH.Refresh)
			r.Post("/signout", memberH.SignOut)
			r.With(sensitiveRL.Limit).Post("/find-id", memberH.FindID)
			r.With(sensitiveRL.Limit).Post("/find-password", memberH.FindPassword)

			// ── Authenticated routes ─────────────────────────────────────────
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.Auth(tokenSvc))
				r.Use(appmiddleware.RequireRole(domain.RoleUser))

				r.Get("/me", memberH.Me)
				r.Put("/me/email", memberH.ModifyEmail)
				r.Put("/me/password", memberH.ModifyPassword)
				r.Delete("/me", memberH.Delete)
			})
		})
	})

	return r
}
