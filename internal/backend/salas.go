package backend

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// SalasByDia lista as salas abertas no dia informado.
func (c *Client) SalasByDia(ctx context.Context, dia string) ([]Sala, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "salas/horarios/"+segment(strings.ToUpper(dia)), nil, false)
	if err != nil {
		return nil, err
	}
	var salas []Sala
	if err := c.do(req, &salas); err != nil {
		return nil, err
	}
	return salas, nil
}

// GetSala busca uma sala.
func (c *Client) GetSala(ctx context.Context, id int64) (Sala, error) {
	req, err := c.newRequest(ctx, http.MethodGet, fmt.Sprintf("salas/horarios/getSala/%d", id), nil, false)
	if err != nil {
		return Sala{}, err
	}
	var sala Sala
	if err := c.do(req, &sala); err != nil {
		return Sala{}, err
	}
	return sala, nil
}

func (c *Client) CreateSala(ctx context.Context, sala Sala) (Message, error) {
	sala.ID = 0
	return c.message(ctx, http.MethodPost, "salas/create", sala)
}

func (c *Client) UpdateSala(ctx context.Context, id int64, sala Sala) (Message, error) {
	return c.message(ctx, http.MethodPut, fmt.Sprintf("salas/updateSala/%d", id), sala)
}

func (c *Client) DeleteSala(ctx context.Context, id int64) (Message, error) {
	return c.message(ctx, http.MethodDelete, fmt.Sprintf("salas/deleteSala/%d", id), nil)
}
