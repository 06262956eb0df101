package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Ran-Mewo/CatPaymentBot/internal/domain"
	"github.com/Ran-Mewo/CatPaymentBot/internal/domain/model"
	"github.com/Ran-Mewo/CatPaymentBot/internal/usecase"
)

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeDomainError maps domain sentinels onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrAlreadyExists):
		http.Error(w, "Already exists", http.StatusConflict)
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrNoDuration):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrGuildNotConfigured):
		http.Error(w, "Guild payments are not configured", http.StatusConflict)
	case domain.IsGatewayError(err):
		http.Error(w, "Payment gateway error", http.StatusBadGateway)
	default:
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}

func settingsGetHandler(settingsUC usecase.GuildSettingsUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		settings, err := settingsUC.Get(r.Context(), chi.URLParam(r, "guildID"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, settingsResponse(settings))
	}
}

type settingsPutRequest struct {
	PaymentURL    string `json:"payment_url"`
	PayoutAddress string `json:"address"`
	TickerTo      string `json:"ticker_to"`
	NetworkTo     string `json:"network_to"`
}

func settingsPutHandler(settingsUC usecase.GuildSettingsUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		guildID := chi.URLParam(r, "guildID")

		var req settingsPutRequest
		if err := decodeJSON(r, &req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		var settings *model.GuildSettings
		var err error
		if req.PaymentURL != "" {
			settings, err = settingsUC.ConfigureFromURL(r.Context(), guildID, req.PaymentURL)
		} else {
			settings, err = settingsUC.Configure(r.Context(), guildID, req.PayoutAddress, req.TickerTo, req.NetworkTo)
		}
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, settingsResponse(settings))
	}
}

func settingsResponse(s *model.GuildSettings) map[string]any {
	return map[string]any{
		"guild_id":   s.GuildID,
		"address":    s.PayoutAddress,
		"ticker_to":  s.TickerTo,
		"network_to": s.NetworkTo,
		"updated_at": s.UpdatedAt,
	}
}

type profileCreateRequest struct {
	Name         string         `json:"name"`
	RoleID       string         `json:"role_id"`
	DurationDays int            `json:"duration_days"`
	Parameters   map[string]any `json:"parameters"`
}

func profilesCreateHandler(profileUC usecase.ProfileUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req profileCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		profile, err := profileUC.Create(r.Context(), chi.URLParam(r, "guildID"), req.Name, req.RoleID, req.DurationDays, req.Parameters)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, profile)
	}
}

func profilesListHandler(profileUC usecase.ProfileUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profiles, err := profileUC.List(r.Context(), chi.URLParam(r, "guildID"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Data []*model.PaymentProfile `json:"data"`
		}{Data: profiles})
	}
}

func profileGetHandler(profileUC usecase.ProfileUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, err := profileUC.Get(r.Context(), chi.URLParam(r, "guildID"), chi.URLParam(r, "name"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, profile)
	}
}

func profileDeleteHandler(profileUC usecase.ProfileUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := profileUC.Delete(r.Context(), chi.URLParam(r, "guildID"), chi.URLParam(r, "name")); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func sessionsListHandler(sessionUC usecase.SessionUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessions, err := sessionUC.List(r.Context(), chi.URLParam(r, "guildID"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Data []*model.PaymentSession `json:"data"`
		}{Data: sessions})
	}
}

func subscriptionsListHandler(subUC usecase.SubscriptionUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subs, err := subUC.List(r.Context(), chi.URLParam(r, "guildID"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Data []*model.Subscription `json:"data"`
		}{Data: subs})
	}
}

type checkoutCreateRequest struct {
	UserID  string `json:"user_id"`
	Profile string `json:"profile"`
}

func checkoutCreateHandler(sessionUC usecase.SessionUseCase, profileUC usecase.ProfileUseCase, settingsUC usecase.GuildSettingsUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		guildID := chi.URLParam(r, "guildID")

		var req checkoutCreateRequest
		if err := decodeJSON(r, &req); err != nil || req.UserID == "" || req.Profile == "" {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		profile, err := profileUC.Get(r.Context(), guildID, req.Profile)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		settings, err := settingsUC.Get(r.Context(), guildID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				writeDomainError(w, domain.ErrGuildNotConfigured)
				return
			}
			writeDomainError(w, err)
			return
		}

		session, err := sessionUC.Start(r.Context(), req.UserID, profile, settings)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"session_id":   session.ID,
			"gateway_id":   session.GatewayID,
			"status":       session.Status,
			"checkout_url": session.CheckoutURL,
			"expires_at":   session.ExpiresAt,
		})
	}
}
