// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Central Command Contributors

package api

import (
	"net/http"
	"time"

	"github.com/unitystation/centralcommand/internal/accounts"
)

type registerRequest struct {
	Identifier  string `json:"identifier" validate:"account_identifier"`
	DisplayName string `json:"display_name" validate:"required,max=60"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenRequest struct {
	Token string `json:"token" validate:"required"`
}

type emailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetConfirmRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type updateRequest struct {
	Identifier  *string `json:"identifier" validate:"omitempty,account_identifier"`
	DisplayName *string `json:"display_name" validate:"omitempty,max=60"`
}

type identifierRequest struct {
	Identifier string `json:"identifier"`
}

type identifierResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

type accountResponse struct {
	ID          string    `json:"id"`
	Identifier  string    `json:"identifier"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	IsConfirmed bool      `json:"is_confirmed"`
	CreatedAt   time.Time `json:"created_at"`
}

type loginResponse struct {
	Token   string          `json:"token"`
	Expiry  time.Time       `json:"expiry"`
	Account accountResponse `json:"account"`
}

type validTokenResponse struct {
	Valid bool `json:"valid"`
}

func newAccountResponse(a *accounts.Account) accountResponse {
	return accountResponse{
		ID:          a.ID.String(),
		Identifier:  a.Identifier,
		DisplayName: a.DisplayName,
		Email:       a.Email,
		IsConfirmed: a.IsConfirmed,
		CreatedAt:   a.CreatedAt,
	}
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	account, err := h.accounts.Register(r.Context(), accounts.RegisterInput{
		Identifier:  req.Identifier,
		DisplayName: req.DisplayName,
		Email:       req.Email,
		Password:    req.Password,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, newAccountResponse(account))
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	result, err := h.accounts.Login(r.Context(), accounts.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, loginResponse{
		Token:   result.Plaintext,
		Expiry:  result.Token.ExpiresAt,
		Account: newAccountResponse(result.Account),
	})
}

func (h *handler) confirmAccount(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	account, err := h.accounts.ConfirmAccount(r.Context(), req.Token)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newAccountResponse(account))
}

// resendConfirmation answers 204 whether or not the email is registered.
func (h *handler) resendConfirmation(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.accounts.ResendConfirmation(r.Context(), req.Email); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// requestReset answers 204 whether or not the email is registered.
func (h *handler) requestReset(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.resets.RequestReset(r.Context(), req.Email); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) validateResetToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if _, err := h.resets.ValidateToken(r.Context(), req.Token); err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, validTokenResponse{Valid: true})
}

func (h *handler) confirmReset(w http.ResponseWriter, r *http.Request) {
	var req resetConfirmRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.resets.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// validateIdentifier reports whether an identifier would be accepted.
// A rejection is a normal 200 response carrying the translated reason.
func (h *handler) validateIdentifier(w http.ResponseWriter, r *http.Request) {
	var req identifierRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	outcome := h.accounts.CheckIdentifier(req.Identifier)
	respondJSON(w, http.StatusOK, identifierResponse{
		Valid:   outcome.OK(),
		Message: h.translator.Outcome(langFrom(r.Context()), outcome),
	})
}

func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.accounts.Logout(r.Context(), tokenFrom(r.Context()).ID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) logoutAll(w http.ResponseWriter, r *http.Request) {
	n, err := h.accounts.LogoutAll(r.Context(), accountFrom(r.Context()).ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.logger.InfoContext(r.Context(), "all tokens revoked",
		"account_id", accountFrom(r.Context()).ID.String(),
		"count", n,
	)
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) me(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, newAccountResponse(accountFrom(r.Context())))
}

func (h *handler) updateMe(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	account, err := h.accounts.UpdateAccount(r.Context(), accountFrom(r.Context()).ID, accounts.UpdateInput{
		Identifier:  req.Identifier,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newAccountResponse(account))
}
