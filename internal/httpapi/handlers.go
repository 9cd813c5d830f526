// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenDiary Contributors

package httpapi

import (
	"net/http"

	"github.com/samber/oops"

	"github.com/opendiary/opendiary/internal/auth"
	"github.com/opendiary/opendiary/internal/envelope"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	req, err := decode[RegisterRequest](s, w, r, "register.request")
	if err != nil {
		reply(s, w, r, StudentIDResponse{}, err)
		return
	}

	id, err := s.registry.Register(r.Context(), auth.Registration{
		Username:   req.Username,
		Name:       req.Name,
		Surname:    req.Surname,
		Patronymic: req.Patronymic,
		Email:      req.Email,
		Password:   req.Password,
	})
	reply(s, w, r, StudentIDResponse{StudentID: id}, err)
}

func (s *Server) handleGetID(w http.ResponseWriter, r *http.Request) {
	account, err := s.registry.FindByUsername(r.Context(), r.PathValue("username"))
	if err != nil {
		reply(s, w, r, StudentIDResponse{}, err)
		return
	}
	reply(s, w, r, StudentIDResponse{StudentID: account.ID}, nil)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	req, err := decode[LoginRequest](s, w, r, "login.request")
	if err != nil {
		reply(s, w, r, LoginResponse{}, err)
		return
	}

	var session *auth.Session
	switch {
	case req.UUID != nil:
		session, err = s.authority.Login(r.Context(), *req.UUID, req.Password)
	case req.Username != "":
		session, err = s.authority.LoginUsername(r.Context(), req.Username, req.Password)
	default:
		err = oops.Code("HTTP_LOGIN_IDENTITY_MISSING").
			Wrapf(envelope.ErrInvalidPayload, "`uuid` or `username` is required")
	}
	if err != nil {
		reply(s, w, r, LoginResponse{}, err)
		return
	}

	reply(s, w, r, LoginResponse{
		SessionID: session.Token,
		StudentID: session.AccountID,
		ExpiresAt: session.ExpiresAt,
	}, nil)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	req, err := decode[SessionRequest](s, w, r, "session.request")
	if err != nil {
		reply(s, w, r, SessionResponse{}, err)
		return
	}

	result, err := s.authority.Validate(r.Context(), req.SSID)
	reply(s, w, r, SessionResponse{AuthResult: result}, err)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	req, err := decode[LogoutRequest](s, w, r, "logout.request")
	if err != nil {
		reply(s, w, r, LogoutResponse{}, err)
		return
	}

	outcome, err := s.authority.Logout(r.Context(), req.SSID, req.UUID)
	if err != nil {
		reply(s, w, r, LogoutResponse{}, err)
		return
	}

	resp := LogoutResponse{AuthResult: outcome.Result}
	if outcome.Result == auth.AuthSuccess {
		id, removed := req.UUID, outcome.Removed
		resp.StudentID = &id
		resp.DropSuccess = &removed
	}
	reply(s, w, r, resp, nil)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	reply(s, w, r, struct{}{}, oops.Code("HTTP_ROUTE_NOT_FOUND").
		With("method", r.Method).
		With("path", r.URL.Path).
		Wrapf(envelope.ErrNotFound, "invalid path `%s`", r.URL.Path))
}
