package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateSlug(t *testing.T) {
	slug := generateSlug("  El Señor de los Anillos!  ")
	assert.True(t, strings.HasPrefix(slug, "el-señor-de-los-anillos-"), slug)

	other := generateSlug("El Señor de los Anillos")
	assert.NotEqual(t, slug, other)

	bare := generateSlug("???")
	assert.NotEmpty(t, bare)
	assert.NotContains(t, bare, "-")
}

func TestBookBeforeCreateKeepsExplicitURL(t *testing.T) {
	b := &Book{Nombre: "Dune", URL: "dune-fija"}
	assert.NoError(t, b.BeforeCreate(nil))
	assert.Equal(t, "dune-fija", b.URL)

	b = &Book{Nombre: "Dune"}
	assert.NoError(t, b.BeforeCreate(nil))
	assert.True(t, strings.HasPrefix(b.URL, "dune-"))
}

func TestUserIsAdmin(t *testing.T) {
	var nilUser *User
	assert.False(t, nilUser.IsAdmin())
	assert.False(t, (&User{Role: RoleOrdinary}).IsAdmin())
	assert.True(t, (&User{Role: RoleAdministrator}).IsAdmin())
}

func TestNewSaleFromBook(t *testing.T) {
	book := &Book{Nombre: "Dune", Autor: "Herbert", Precio: "10", ISBN: "123", UsuarioID: 5, Usuario: &User{ID: 5, Username: "paul"}}
	sale := NewSaleFromBook(book, &User{ID: 7, Username: "chani"})

	assert.Equal(t, uint(5), sale.SellerID)
	assert.Equal(t, "paul", sale.SellerName)
	assert.Equal(t, uint(7), sale.BuyerID)
	assert.Equal(t, "chani", sale.BuyerName)
	assert.Equal(t, "10", sale.Price)
}
