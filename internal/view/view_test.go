package view

import (
	"html/template"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDinero(t *testing.T) {
	dinero := Funcs()["dinero"].(func(float64) string)
	require.Equal(t, "15.00 €", dinero(15))
	require.Equal(t, "0.50 €", dinero(0.5))
}

func TestFechaHora(t *testing.T) {
	fechaHora := Funcs()["fechaHora"].(func(time.Time) string)
	require.Equal(t, "14/03/2026 09:30", fechaHora(time.Date(2026, 3, 14, 9, 30, 0, 0, time.Local)))
	require.Equal(t, "", fechaHora(time.Time{}))
}

func TestNl2brEscapesMarkup(t *testing.T) {
	nl2br := Funcs()["nl2br"].(func(string) template.HTML)
	got := nl2br("hola\n<script>")
	require.Equal(t, template.HTML("hola<br>&lt;script&gt;"), got)
}

func TestDeref(t *testing.T) {
	deref := Funcs()["deref"].(func(*uint) uint)
	require.Equal(t, uint(0), deref(nil))
	v := uint(7)
	require.Equal(t, uint(7), deref(&v))
}
