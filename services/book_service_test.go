package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"estanteria_go/config"
	"estanteria_go/models"
	"estanteria_go/repository"
	"estanteria_go/repository/repositorytest"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	sold []string
}

func (n *recordingNotifier) BookSold(ctx context.Context, book *models.Book, buyer *models.User) {
	n.sold = append(n.sold, book.URL)
}

var fixedNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func newBookService(t *testing.T, mode string, opts ...BookServiceOption) (*BookService, *repositorytest.Store) {
	t.Helper()
	store := repositorytest.New()
	opts = append([]BookServiceOption{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewBookService(store.Books(), store.Sales(), mode, nil, opts...), store
}

func validCreate() *CreateBookRequest {
	return &CreateBookRequest{
		Nombre:      "Dune",
		Autor:       "Herbert",
		Precio:      "10",
		Descripcion: "classic",
		ISBN:        "123",
	}
}

func TestCreateBook_ServerAssignedFields(t *testing.T) {
	bs, store := newBookService(t, config.ModeStrict)
	owner := &models.User{ID: 5}

	book, err := bs.CreateBook(context.Background(), owner, validCreate(), nil)
	require.NoError(t, err)

	assert.Equal(t, models.BookStatusForSale, book.Estado)
	assert.Equal(t, uint(5), book.UsuarioID)
	assert.Equal(t, fixedNow, book.Fecha)

	all := store.AllBooks()
	require.Len(t, all, 1)
	assert.Equal(t, uint(5), all[0].UsuarioID)
	assert.Equal(t, 1, store.Creates)
}

func TestCreateBook_Fecha(t *testing.T) {
	bs, _ := newBookService(t, config.ModeStrict)
	owner := &models.User{ID: 5}

	req := validCreate()
	req.Fecha = "2024-03-01"
	book, err := bs.CreateBook(context.Background(), owner, req, nil)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), book.Fecha)

	req.Fecha = "ayer"
	book, err = bs.CreateBook(context.Background(), owner, req, nil)
	require.NoError(t, err)
	assert.Equal(t, fixedNow, book.Fecha)
}

func TestCreateBook_StoreFailure(t *testing.T) {
	bs, store := newBookService(t, config.ModeStrict)
	store.Err = errors.New("db down")

	_, err := bs.CreateBook(context.Background(), &models.User{ID: 5}, validCreate(), nil)
	assert.Error(t, err)
}

func TestListings_Partition(t *testing.T) {
	bs, store := newBookService(t, config.ModeStrict)
	store.AddBook(models.Book{Nombre: "Dune", UsuarioID: 5, Fecha: fixedNow.Add(-72 * time.Hour)})
	store.AddBook(models.Book{Nombre: "Emma", UsuarioID: 9, Fecha: fixedNow})
	store.AddBook(models.Book{Nombre: "Ulises", UsuarioID: 9, Fecha: fixedNow})
	ctx := context.Background()

	for _, uid := range []uint{5, 9, 42} {
		user := &models.User{ID: uid}
		others, err := bs.ListOthers(ctx, user)
		require.NoError(t, err)
		own, err := bs.ListOwn(ctx, user)
		require.NoError(t, err)

		for _, b := range others {
			assert.NotEqual(t, uid, b.UsuarioID)
		}
		for _, b := range own {
			assert.Equal(t, uid, b.UsuarioID)
		}
		assert.Len(t, append(others, own...), 3)
	}

	own, err := bs.ListOwn(ctx, &models.User{ID: 5})
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "hace 3 días", own[0].Hace)
}

func TestListOthers_StoreFailure(t *testing.T) {
	bs, store := newBookService(t, config.ModeStrict)
	store.Err = errors.New("db down")

	books, err := bs.ListOthers(context.Background(), &models.User{ID: 1})
	assert.Error(t, err)
	assert.Empty(t, books)
}

func TestGetBySlug(t *testing.T) {
	bs, store := newBookService(t, config.ModeStrict)
	book := store.AddBook(models.Book{Nombre: "Dune", UsuarioID: 5, URL: "dune-1", Fecha: fixedNow})
	ctx := context.Background()

	got, err := bs.GetBySlug(ctx, &models.User{ID: 5}, book.URL)
	require.NoError(t, err)
	assert.Equal(t, "Dune", got.Nombre)
	assert.NotEmpty(t, got.Hace)

	_, err = bs.GetBySlug(ctx, &models.User{ID: 6}, book.URL)
	assert.ErrorIs(t, err, ErrNotOwner)

	_, err = bs.GetBySlug(ctx, &models.User{ID: 5}, "missing")
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestGetBySlug_Cache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	bs, store := newBookService(t, config.ModeStrict, WithBookCache(rdb))
	book := store.AddBook(models.Book{Nombre: "Dune", UsuarioID: 5, URL: "dune-1"})
	ctx := context.Background()

	_, err := bs.GetBySlug(ctx, &models.User{ID: 5}, book.URL)
	require.NoError(t, err)
	assert.True(t, mr.Exists("book:dune-1"))

	// 缓存命中时不访问数据库
	store.Err = errors.New("db down")
	got, err := bs.GetBySlug(ctx, &models.User{ID: 5}, book.URL)
	require.NoError(t, err)
	assert.Equal(t, "Dune", got.Nombre)

	// 更新后缓存失效
	store.Err = nil
	req := &UpdateBookRequest{Nombre: "Dune Messiah", Autor: "Herbert", Descripcion: "x", Precio: "12", ISBN: "9"}
	require.NoError(t, bs.UpdateBook(ctx, &models.User{ID: 5}, book.ID, req))
	assert.False(t, mr.Exists("book:dune-1"))
}

// flakyBooks 前 failures 次 FindByID 返回错误
type flakyBooks struct {
	repository.BookRepository
	failures int
}

func (f *flakyBooks) FindByID(ctx context.Context, id uint) (*models.Book, error) {
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("connection reset")
	}
	return f.BookRepository.FindByID(ctx, id)
}

func TestUpdateBook_InvalidatesCacheAfterFailedLookup(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := repositorytest.New()
	books := &flakyBooks{BookRepository: store.Books()}
	bs := NewBookService(books, store.Sales(), config.ModeStrict, nil, WithBookCache(rdb))
	book := store.AddBook(models.Book{Nombre: "Dune", UsuarioID: 5, URL: "dune-1"})
	ctx := context.Background()

	_, err := bs.GetBySlug(ctx, &models.User{ID: 5}, book.URL)
	require.NoError(t, err)
	require.True(t, mr.Exists("book:dune-1"))

	books.failures = 1
	req := &UpdateBookRequest{Nombre: "Dune Messiah", Autor: "Herbert", Descripcion: "x", Precio: "12", ISBN: "9"}
	require.NoError(t, bs.UpdateBook(ctx, &models.User{ID: 6}, book.ID, req))

	assert.Equal(t, "Dune Messiah", store.AllBooks()[0].Nombre)
	assert.False(t, mr.Exists("book:dune-1"))
}

func TestPurchase_SecondBuyerRecordsNothing(t *testing.T) {
	store := repositorytest.New()
	sales := store.Sales()
	book := store.AddBook(models.Book{Nombre: "Dune", UsuarioID: 5, URL: "dune-1"})
	ctx := context.Background()

	// 两个买家都在书籍删除前读到了它
	n, err := sales.Purchase(ctx, &book, &models.User{ID: 6})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = sales.Purchase(ctx, &book, &models.User{ID: 7})
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.Len(t, store.AllSales(), 1)
	assert.Len(t, store.AllShipments(), 1)
}

func TestUpdateBook_Modes(t *testing.T) {
	req := &UpdateBookRequest{Nombre: "Nuevo", Autor: "A", Descripcion: "D", Precio: "1", ISBN: "2"}
	ctx := context.Background()

	t.Run("strict updates without ownership check", func(t *testing.T) {
		bs, store := newBookService(t, config.ModeStrict)
		book := store.AddBook(models.Book{Nombre: "Dune", UsuarioID: 5})

		require.NoError(t, bs.UpdateBook(ctx, &models.User{ID: 6}, book.ID, req))
		assert.Equal(t, "Nuevo", store.AllBooks()[0].Nombre)
	})

	t.Run("strict missing id still succeeds", func(t *testing.T) {
		bs, store := newBookService(t, config.ModeStrict)
		require.NoError(t, bs.UpdateBook(ctx, &models.User{ID: 6}, 99, req))
		assert.Equal(t, 1, store.Updates)
	})

	t.Run("hardened rejects non-owner", func(t *testing.T) {
		bs, store := newBookService(t, config.ModeHardened)
		book := store.AddBook(models.Book{Nombre: "Dune", UsuarioID: 5})

		err := bs.UpdateBook(ctx, &models.User{ID: 6}, book.ID, req)
		assert.ErrorIs(t, err, ErrNotOwner)
		assert.Zero(t, store.Updates)
		assert.Equal(t, "Dune", store.AllBooks()[0].Nombre)
	})

	t.Run("hardened rejects missing id", func(t *testing.T) {
		bs, store := newBookService(t, config.ModeHardened)
		err := bs.UpdateBook(ctx, &models.User{ID: 6}, 99, req)
		assert.ErrorIs(t, err, ErrBookNotFound)
		assert.Zero(t, store.Updates)
	})
}

func TestPurchase_Strict(t *testing.T) {
	ctx := context.Background()

	t.Run("missing slug succeeds with nothing deleted", func(t *testing.T) {
		bs, store := newBookService(t, config.ModeStrict)
		n, err := bs.Purchase(ctx, &models.User{ID: 8}, "ghost")
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Equal(t, 1, store.Deletes)
		assert.Zero(t, store.Purchases)
	})

	t.Run("existing book records sale and notifies seller", func(t *testing.T) {
		notifier := &recordingNotifier{}
		bs, store := newBookService(t, config.ModeStrict, WithSaleNotifier(notifier))
		store.AddBook(models.Book{Nombre: "Dune", UsuarioID: 5, URL: "dune-1", Vendedor: "paul"})
		buyer := &models.User{ID: 8, Username: "chani", Address: "Sietch Tabr"}

		n, err := bs.Purchase(ctx, buyer, "dune-1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		assert.Empty(t, store.AllBooks())

		sales := store.AllSales()
		require.Len(t, sales, 1)
		assert.Equal(t, uint(5), sales[0].SellerID)
		assert.Equal(t, uint(8), sales[0].BuyerID)

		shipments := store.AllShipments()
		require.Len(t, shipments, 1)
		assert.Equal(t, "Sietch Tabr", shipments[0].Address)
		assert.Equal(t, models.ShipmentPending, shipments[0].Status)

		assert.Equal(t, []string{"dune-1"}, notifier.sold)
	})

	t.Run("second purchase of the same slug is a no-op", func(t *testing.T) {
		bs, store := newBookService(t, config.ModeStrict)
		store.AddBook(models.Book{Nombre: "Dune", UsuarioID: 5, URL: "dune-1"})
		buyer := &models.User{ID: 8}

		_, err := bs.Purchase(ctx, buyer, "dune-1")
		require.NoError(t, err)
		n, err := bs.Purchase(ctx, buyer, "dune-1")
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Len(t, store.AllSales(), 1)
	})

	t.Run("self purchase allowed", func(t *testing.T) {
		bs, store := newBookService(t, config.ModeStrict)
		store.AddBook(models.Book{Nombre: "Dune", UsuarioID: 5, URL: "dune-1"})

		n, err := bs.Purchase(ctx, &models.User{ID: 5}, "dune-1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("store failure", func(t *testing.T) {
		bs, store := newBookService(t, config.ModeStrict)
		store.Err = errors.New("db down")
		_, err := bs.Purchase(ctx, &models.User{ID: 8}, "dune-1")
		assert.Error(t, err)
	})
}

func TestPurchase_Hardened(t *testing.T) {
	ctx := context.Background()

	t.Run("missing slug", func(t *testing.T) {
		bs, store := newBookService(t, config.ModeHardened)
		_, err := bs.Purchase(ctx, &models.User{ID: 8}, "ghost")
		assert.ErrorIs(t, err, ErrBookNotFound)
		assert.Zero(t, store.Mutations())
	})

	t.Run("self purchase", func(t *testing.T) {
		bs, store := newBookService(t, config.ModeHardened)
		store.AddBook(models.Book{Nombre: "Dune", UsuarioID: 5, URL: "dune-1"})

		_, err := bs.Purchase(ctx, &models.User{ID: 5}, "dune-1")
		assert.ErrorIs(t, err, ErrSelfPurchase)
		assert.Len(t, store.AllBooks(), 1)
	})
}

func TestPurchase_InvalidatesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	bs, store := newBookService(t, config.ModeStrict, WithBookCache(rdb))
	store.AddBook(models.Book{Nombre: "Dune", UsuarioID: 5, URL: "dune-1"})
	ctx := context.Background()

	_, err := bs.GetBySlug(ctx, &models.User{ID: 5}, "dune-1")
	require.NoError(t, err)
	require.True(t, mr.Exists("book:dune-1"))

	_, err = bs.Purchase(ctx, &models.User{ID: 8}, "dune-1")
	require.NoError(t, err)
	assert.False(t, mr.Exists("book:dune-1"))
}
