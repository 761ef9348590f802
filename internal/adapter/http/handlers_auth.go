// Package adapthttp implements the HTTP adapter for the application.
package adapthttp

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/url"

	"github.com/coreos/go-oidc/v3/oidc"

	"hyperlocal/internal/app"
	"hyperlocal/internal/domain"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleAdminLogin(r *http.Request, req loginRequest) (result[*app.LoginResult], error) {
	res, err := s.auth.AdminLogin(r.Context(), req.Email, req.Password)
	if err != nil {
		return result[*app.LoginResult]{}, err
	}
	return okMsg("Login successful", res), nil
}

func (s *Server) handleClientLogin(r *http.Request, req loginRequest) (result[*app.LoginResult], error) {
	res, err := s.auth.ClientLogin(r.Context(), req.Email, req.Password)
	if err != nil {
		return result[*app.LoginResult]{}, err
	}
	return okMsg("Login successful", res), nil
}

func (s *Server) handleLogout(r *http.Request) (result[none], error) {
	if err := s.auth.Logout(r.Context()); err != nil {
		return result[none]{}, err
	}
	return done("Logged out successfully"), nil
}

func (s *Server) handleRegister(r *http.Request, in app.RegisterInput) (result[*app.RegisterResult], error) {
	res, err := s.auth.Register(r.Context(), in)
	if err != nil {
		return result[*app.RegisterResult]{}, err
	}
	return result[*app.RegisterResult]{status: http.StatusCreated, message: "Registration successful", data: res}, nil
}

func (s *Server) handleMe(r *http.Request) (result[*domain.UserResponse], error) {
	me, err := s.auth.Me(r.Context(), mustPrincipal(r))
	if err != nil {
		return result[*domain.UserResponse]{}, err
	}
	return ok(me), nil
}

type profileRequest struct {
	Name   *string `json:"name"`
	Email  *string `json:"email"`
	Mobile *string `json:"mobile"`
}

func (s *Server) handleUpdateProfile(r *http.Request, req profileRequest) (result[*domain.UserResponse], error) {
	me, err := s.auth.UpdateProfile(r.Context(), mustPrincipal(r), domain.ProfileUpdate(req))
	if err != nil {
		return result[*domain.UserResponse]{}, err
	}
	return okMsg("Profile updated successfully", me), nil
}

func (s *Server) handleChangePassword(r *http.Request, req app.PasswordChange) (result[none], error) {
	if err := s.auth.ChangePassword(r.Context(), mustPrincipal(r), req); err != nil {
		return result[none]{}, err
	}
	return done("Password changed successfully"), nil
}

func (s *Server) handleSSOLogin(w http.ResponseWriter, r *http.Request) {
	state := generateState()
	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/api/admin/sso",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode, // Lax required for cross-site redirect returns
		MaxAge:   300,
	})
	http.Redirect(w, r, s.sso.OAuth2Config.AuthCodeURL(state), http.StatusFound)
}

func (s *Server) handleSSOCallback(w http.ResponseWriter, r *http.Request) {
	state, err := r.Cookie("oauth_state")
	if err != nil || r.URL.Query().Get("state") != state.Value {
		s.fail(w, r, domain.BadRequest("invalid state"))
		return
	}
	http.SetCookie(w, &http.Cookie{Name: "oauth_state", MaxAge: -1, Path: "/api/admin/sso"})

	token, err := s.sso.OAuth2Config.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		logFrom(r).WithError(err).Warn("sso code exchange failed")
		writeAuthError(w, msgInvalidToken)
		return
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		writeAuthError(w, msgInvalidToken)
		return
	}
	idToken, err := s.sso.Provider.Verifier(&oidc.Config{ClientID: s.sso.OAuth2Config.ClientID}).Verify(r.Context(), rawIDToken)
	if err != nil {
		logFrom(r).WithError(err).Warn("sso id token rejected")
		writeAuthError(w, msgInvalidToken)
		return
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified *bool  `json:"email_verified"`
	}
	if err := idToken.Claims(&claims); err != nil || claims.Email == "" {
		writeAuthError(w, msgInvalidToken)
		return
	}
	if claims.EmailVerified != nil && !*claims.EmailVerified {
		writeAuthError(w, msgInvalidToken)
		return
	}

	res, err := s.auth.LoginWithEmail(r.Context(), claims.Email)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	http.Redirect(w, r, s.sso.PostLoginURL+"#token="+url.QueryEscape(res.Token), http.StatusFound)
}

func generateState() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}
