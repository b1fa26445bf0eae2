package backend

import (
	"context"
	"fmt"
	"net/http"
)

// ListTalleres lista as oficinas abertas.
func (c *Client) ListTalleres(ctx context.Context) ([]Taller, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "talleres/user/listTalleres", nil, true)
	if err != nil {
		return nil, err
	}
	var talleres []Taller
	if err := c.do(req, &talleres); err != nil {
		return nil, err
	}
	return talleres, nil
}

// GetTaller busca uma oficina.
func (c *Client) GetTaller(ctx context.Context, id int64) (Taller, error) {
	req, err := c.newRequest(ctx, http.MethodGet, fmt.Sprintf("talleres/user/getTaller/%d", id), nil, true)
	if err != nil {
		return Taller{}, err
	}
	var taller Taller
	if err := c.do(req, &taller); err != nil {
		return Taller{}, err
	}
	return taller, nil
}

// CreateTaller cadastra uma oficina (ADMIN).
func (c *Client) CreateTaller(ctx context.Context, taller Taller) (Message, error) {
	taller.ID = 0
	return c.message(ctx, http.MethodPost, "talleres/admin/addTaller", taller)
}

// UpdateTaller altera os campos editáveis de uma oficina (ADMIN).
func (c *Client) UpdateTaller(ctx context.Context, id int64, taller Taller) (Message, error) {
	return c.message(ctx, http.MethodPut, fmt.Sprintf("talleres/admin/updateTaller/%d", id), taller)
}

// DeleteTaller remove uma oficina (ADMIN).
func (c *Client) DeleteTaller(ctx context.Context, id int64) (Message, error) {
	return c.message(ctx, http.MethodDelete, fmt.Sprintf("talleres/admin/deleteTaller/%d", id), nil)
}

// ListTallerUsers lista os inscritos de uma oficina (ADMIN).
func (c *Client) ListTallerUsers(ctx context.Context, tallerID int64) ([]UserProfile, error) {
	req, err := c.newRequest(ctx, http.MethodGet, fmt.Sprintf("talleres/admin/listUserTaller/%d", tallerID), nil, true)
	if err != nil {
		return nil, err
	}
	var users []UserProfile
	if err := c.do(req, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// SignIn inscreve o usuário sozinho.
func (c *Client) SignIn(ctx context.Context, tallerID, userID int64) (Message, error) {
	return c.message(ctx, http.MethodPost, fmt.Sprintf("talleres/user/signInTaller/%d/%d", tallerID, userID), struct{}{})
}

// SignInCouple inscreve usuário e par numa única requisição.
func (c *Client) SignInCouple(ctx context.Context, tallerID, userID int64, partnerEmail string) (Message, error) {
	path := fmt.Sprintf("talleres/user/signInParejaTaller/%d/%d/%s", tallerID, userID, segment(partnerEmail))
	return c.message(ctx, http.MethodPost, path, struct{}{})
}

// AddPartner associa um par a uma inscrição existente.
func (c *Client) AddPartner(ctx context.Context, tallerID, userID int64, partnerEmail string) (Message, error) {
	path := fmt.Sprintf("talleres/user/addPartnerTaller/%d/%d/%s", tallerID, userID, segment(partnerEmail))
	return c.message(ctx, http.MethodPost, path, struct{}{})
}

// SignOut anula a inscrição.
func (c *Client) SignOut(ctx context.Context, tallerID, userID int64) (Message, error) {
	return c.message(ctx, http.MethodGet, fmt.Sprintf("talleres/user/signOutTaller/%d/%d", tallerID, userID), nil)
}

// IsSignedUp consulta se o usuário está inscrito.
func (c *Client) IsSignedUp(ctx context.Context, tallerID, userID int64) (bool, error) {
	return c.flag(ctx, fmt.Sprintf("talleres/user/isUserSignedUp/%d/%d", tallerID, userID))
}

// HasPartner consulta se o usuário já tem par.
func (c *Client) HasPartner(ctx context.Context, tallerID, userID int64) (bool, error) {
	return c.flag(ctx, fmt.Sprintf("talleres/user/isUserHasPartner/%d/%d", tallerID, userID))
}
