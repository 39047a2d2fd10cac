package server

import (
	"net/http"

	"github.com/jrsteele09/go-auth-sessions/auth"
)

// forgotPasswordMessage is returned whether or not the email is registered
const forgotPasswordMessage = "if the email is registered, a reset code has been sent"

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
	}
}

// PreflightHandler answers OPTIONS requests once CorsMiddleware has set its headers
func (s *Server) PreflightHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input auth.RegisterInput
		if !s.decodeAndValidate(w, r, &input) {
			return
		}
		identity, err := s.auth.Register(r.Context(), input.Name, input.Email, input.Password)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, identity)
	}
}

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input auth.LoginInput
		if !s.decodeAndValidate(w, r, &input) {
			return
		}
		result, err := s.auth.Login(r.Context(), input.Email, input.Password, input.DeviceID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input auth.RefreshInput
		if !s.decodeAndValidate(w, r, &input) {
			return
		}
		pair, err := s.auth.Refresh(r.Context(), input.RefreshToken)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, pair)
	}
}

func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input auth.RefreshInput
		if !s.decodeAndValidate(w, r, &input) {
			return
		}
		if err := s.auth.Logout(r.Context(), input.RefreshToken); err != nil {
			s.writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) ForgotPasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input auth.ForgotPasswordInput
		if !s.decodeAndValidate(w, r, &input) {
			return
		}
		if err := s.auth.ForgotPassword(r.Context(), input.Email); err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusAccepted, statusResponse{Status: forgotPasswordMessage})
	}
}

func (s *Server) ResetPasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input auth.ResetPasswordInput
		if !s.decodeAndValidate(w, r, &input) {
			return
		}
		if err := s.auth.ResetPassword(r.Context(), input.Email, input.OTP, input.NewPassword); err != nil {
			s.writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// MeHandler returns the caller's access token claims
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := claimsFromContext(r.Context())
		writeJSON(w, http.StatusOK, claims.Payload())
	}
}

func (s *Server) ListSessionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := claimsFromContext(r.Context())
		s.writeSessions(w, r, claims.Subject)
	}
}

// EndSessionsHandler signs out the listed devices of the caller
func (s *Server) EndSessionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := claimsFromContext(r.Context())
		var input auth.EndSessionsInput
		if !s.decodeAndValidate(w, r, &input) {
			return
		}
		if err := s.auth.EndSessions(r.Context(), claims.Subject, input.DeviceIDs...); err != nil {
			s.writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) writeSessions(w http.ResponseWriter, r *http.Request, identityID string) {
	list, err := s.auth.Sessions(r.Context(), identityID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": list})
}
