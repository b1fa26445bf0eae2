package talleres

import (
	"errors"
	"time"
)

const (
	isoLayout     = "2006-01-02"
	displayLayout = "02-01-2006"
)

// ErrFechaInvalida é devolvido para datas fora do calendário ou mal formatadas.
var ErrFechaInvalida = errors.New("Fecha no válida")

// ToDisplay converte YYYY-MM-DD em DD-MM-YYYY.
func ToDisplay(iso string) (string, error) {
	t, err := time.Parse(isoLayout, iso)
	if err != nil {
		return "", ErrFechaInvalida
	}
	return t.Format(displayLayout), nil
}

// FromDisplay converte DD-MM-YYYY de volta em YYYY-MM-DD.
func FromDisplay(display string) (string, error) {
	t, err := time.Parse(displayLayout, display)
	if err != nil {
		return "", ErrFechaInvalida
	}
	return t.Format(isoLayout), nil
}

// ValidFecha informa se iso é uma data de calendário válida em YYYY-MM-DD.
func ValidFecha(iso string) bool {
	_, err := time.Parse(isoLayout, iso)
	return err == nil
}
