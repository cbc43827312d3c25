package main

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/handlers"

	"github.com/phrazzld/natours-api/internal/api"
	apiMiddleware "github.com/phrazzld/natours-api/internal/api/middleware"
	"github.com/phrazzld/natours-api/internal/api/shared"
	"github.com/phrazzld/natours-api/internal/domain"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	production := app.config.Server.IsProduction()
	errs := api.ErrorRenderer{Production: production}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if app.config.Server.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(apiMiddleware.TraceMiddleware(app.logger))
	if !production {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.SecurityHeaders(production))
	r.Use(handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	))
	r.Use(middleware.RequestSize(shared.MaxBodyBytes))

	notFound := func(w http.ResponseWriter, r *http.Request) {
		errs.Render(w, r, domain.NewError(domain.KindNotFound,
			fmt.Sprintf("Can't find %s on this server!", r.URL.Path)))
	}
	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	authHandler := api.NewAuthHandler(app.manager, app.config.Auth.CookieLifetime(), errs)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.manager, errs)
	tourHandler := api.NewTourHandler(app.stores.tours, app.stores.reviews, errs, app.logger)
	reviewHandler := api.NewReviewHandler(app.stores.reviews, errs, app.logger)
	userHandler := api.NewUserHandler(app.stores.users, app.manager, errs, app.logger)
	limiter := apiMiddleware.NewRateLimiter(app.config.RateLimit)

	reviewRoutes := func(r chi.Router) {
		r.Use(authMiddleware.Protect)
		r.Get("/", reviewHandler.List)
		r.With(authMiddleware.RestrictTo(domain.RoleUser)).Post("/", reviewHandler.Create)
		r.Get("/{id}", reviewHandler.Get)
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RestrictTo(domain.RoleUser, domain.RoleAdmin))
			r.Patch("/{id}", reviewHandler.Update)
			r.Delete("/{id}", reviewHandler.Delete)
		})
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(limiter.Handler)

		r.Route("/tours", func(r chi.Router) {
			r.Route("/{tourId}/reviews", reviewRoutes)

			r.With(api.AliasTopTours).Get("/top-5-cheap", tourHandler.List)
			r.Get("/tour-stats", tourHandler.Stats)
			r.With(
				authMiddleware.Protect,
				authMiddleware.RestrictTo(domain.RoleAdmin, domain.RoleLeadGuide, domain.RoleGuide),
			).Get("/monthly-plan/{year}", tourHandler.MonthlyPlan)

			r.Get("/", tourHandler.List)
			r.Get("/{id}", tourHandler.Get)
			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.Protect)
				r.Use(authMiddleware.RestrictTo(domain.RoleAdmin, domain.RoleLeadGuide))
				r.Post("/", tourHandler.Create)
				r.Patch("/{id}", tourHandler.Update)
				r.Delete("/{id}", tourHandler.Delete)
			})
		})

		r.Route("/reviews", reviewRoutes)

		r.Route("/users", func(r chi.Router) {
			r.Post("/signup", authHandler.Signup)
			r.Post("/login", authHandler.Login)
			r.Get("/logout", authHandler.Logout)
			r.Post("/forgotPassword", authHandler.ForgotPassword)
			r.Post("/resetPassword/{token}", authHandler.ResetPassword)
			r.Patch("/resetPassword/{token}", authHandler.ResetPassword)

			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.Protect)
				r.Patch("/updateMyPassword", authHandler.UpdateMyPassword)
				r.Get("/me", userHandler.GetMe)
				r.Patch("/updateMe", userHandler.UpdateMe)
				r.Delete("/deleteMe", userHandler.DeleteMe)

				r.Group(func(r chi.Router) {
					r.Use(authMiddleware.RestrictTo(domain.RoleAdmin))
					r.Get("/", userHandler.List)
					r.Post("/", userHandler.Create)
					r.Get("/{id}", userHandler.Get)
					r.Patch("/{id}", userHandler.Update)
					r.Delete("/{id}", userHandler.Delete)
				})
			})
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
