//go:build unit

package util

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Alimentos", "alimentos"},
		{"Almacén y Botillería", "almacen-y-botilleria"},
		{"Construcción", "construccion"},
		{"  Café -- del   Puerto  ", "cafe-del-puerto"},
		{"Señales & Letreros", "senales-letreros"},
		{"123 Ferretería", "123-ferreteria"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}
