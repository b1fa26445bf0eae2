package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// Authenticate troca credenciais por um token bearer.
func (c *Client) Authenticate(ctx context.Context, creds Credentials) (string, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "auth/authenticate", creds, false)
	if err != nil {
		return "", err
	}
	var resp tokenResponse
	if err := c.do(req, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", &DecodeError{Endpoint: "auth/authenticate", Err: errors.New("token ausente")}
	}
	return resp.Token, nil
}

// Register cria a conta; a resposta traz o texto de confirmação.
func (c *Client) Register(ctx context.Context, reg Registration) (Message, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "auth/register", reg, false)
	if err != nil {
		return Message{}, err
	}
	var msg Message
	if err := c.do(req, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// UserProfile busca o perfil do dono do token corrente.
func (c *Client) UserProfile(ctx context.Context) (UserProfile, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return UserProfile{}, fmt.Errorf("backend: leitura do token: %w", err)
	}
	q := url.Values{}
	q.Set("token", token)

	req, err := c.newRequest(ctx, http.MethodGet, "auth/userProfile?"+q.Encode(), nil, true)
	if err != nil {
		return UserProfile{}, err
	}
	var profile UserProfile
	if err := c.do(req, &profile); err != nil {
		return UserProfile{}, err
	}
	return profile, nil
}

// Logout encerra a sessão no backend.
func (c *Client) Logout(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, "logout", nil, true)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// UpdateUser grava o perfil e devolve o usuário atualizado.
func (c *Client) UpdateUser(ctx context.Context, userID int64, update ProfileUpdate) (UserProfile, error) {
	req, err := c.newRequest(ctx, http.MethodPut, fmt.Sprintf("user/update/%d", userID), update, true)
	if err != nil {
		return UserProfile{}, err
	}
	var profile UserProfile
	if err := c.do(req, &profile); err != nil {
		return UserProfile{}, err
	}
	return profile, nil
}

// DeleteUser remove a conta indicada.
func (c *Client) DeleteUser(ctx context.Context, userID int64) (Message, error) {
	return c.message(ctx, http.MethodDelete, fmt.Sprintf("user/delete/%d", userID), nil)
}

// ListUsers lista todas as contas (apenas ADMIN).
func (c *Client) ListUsers(ctx context.Context) ([]UserProfile, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "admin/listUsers", nil, true)
	if err != nil {
		return nil, err
	}
	var users []UserProfile
	if err := c.do(req, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// EnableUser reativa uma conta.
func (c *Client) EnableUser(ctx context.Context, userID int64) (Message, error) {
	return c.message(ctx, http.MethodPut, fmt.Sprintf("admin/user/enable/%d", userID), struct{}{})
}

// DisableUser bloqueia uma conta.
func (c *Client) DisableUser(ctx context.Context, userID int64) (Message, error) {
	return c.message(ctx, http.MethodPut, fmt.Sprintf("admin/user/disable/%d", userID), struct{}{})
}

// ChangeRole troca o papel de autorização; o corpo é a string JSON do papel.
func (c *Client) ChangeRole(ctx context.Context, userID int64, role string) (Message, error) {
	return c.message(ctx, http.MethodPut, fmt.Sprintf("admin/role/%d", userID), role)
}

// RequestOTP envia o código de recuperação para o e-mail.
func (c *Client) RequestOTP(ctx context.Context, email string) (Message, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "forgotPassword/verifyEmail/"+segment(email), struct{}{}, false)
	if err != nil {
		return Message{}, err
	}
	var msg Message
	if err := c.do(req, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// VerifyOTP confirma o código recebido por e-mail.
func (c *Client) VerifyOTP(ctx context.Context, otp, email string) (Message, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "forgotPassword/verifyOtp/"+segment(otp)+"/"+segment(email), struct{}{}, false)
	if err != nil {
		return Message{}, err
	}
	var msg Message
	if err := c.do(req, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// ChangePassword define a nova senha após a verificação do código.
func (c *Client) ChangePassword(ctx context.Context, email string, change PasswordChange) (Message, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "forgotPassword/changePassword/"+segment(email), change, false)
	if err != nil {
		return Message{}, err
	}
	var msg Message
	if err := c.do(req, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
