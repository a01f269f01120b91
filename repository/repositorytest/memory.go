// Package repositorytest 提供内存版存储，供测试使用，记录写操作次数
package repositorytest

import (
	"context"
	"errors"
	"sync"
	"time"

	"estanteria_go/models"
	"estanteria_go/repository"

	"github.com/rs/xid"
)

// Store 共享的内存数据
type Store struct {
	mu        sync.Mutex
	nextID    uint
	books     []models.Book
	users     []models.User
	comments  []models.Comment
	sales     []models.Sale
	shipments []models.Shipment

	// Err 不为空时书籍、评论、销售的操作返回该错误
	Err error
	// UserErr 不为空时用户操作返回该错误
	UserErr error

	// 写操作计数
	Creates   int
	Updates   int
	Deletes   int
	Purchases int
}

// New 创建空的内存存储
func New() *Store {
	return &Store{}
}

func (s *Store) id() uint {
	s.nextID++
	return s.nextID
}

// Books 书籍存储
func (s *Store) Books() repository.BookRepository { return &bookRepo{s} }

// Users 用户存储
func (s *Store) Users() repository.UserRepository { return &userRepo{s} }

// Comments 评论存储
func (s *Store) Comments() repository.CommentRepository { return &commentRepo{s} }

// Sales 销售存储
func (s *Store) Sales() repository.SaleRepository { return &saleRepo{s} }

// AddBook 直接写入书籍（不计数）
func (s *Store) AddBook(b models.Book) models.Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == 0 {
		b.ID = s.id()
	}
	if b.URL == "" {
		b.URL = xid.New().String()
	}
	s.books = append(s.books, b)
	return b
}

// AddUser 直接写入用户（不计数）
func (s *Store) AddUser(u models.User) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = s.id()
	}
	s.users = append(s.users, u)
	return u
}

// AddShipment 直接写入发货记录（不计数）
func (s *Store) AddShipment(sh models.Shipment) models.Shipment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sh.ID == 0 {
		sh.ID = s.id()
	}
	s.shipments = append(s.shipments, sh)
	return sh
}

// AllBooks 当前全部书籍
func (s *Store) AllBooks() []models.Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Book(nil), s.books...)
}

// AllSales 当前全部销售
func (s *Store) AllSales() []models.Sale {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Sale(nil), s.sales...)
}

// AllShipments 当前全部发货记录
func (s *Store) AllShipments() []models.Shipment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Shipment(nil), s.shipments...)
}

// Mutations 写操作总次数
func (s *Store) Mutations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Creates + s.Updates + s.Deletes + s.Purchases
}

// ==================== books ====================

type bookRepo struct{ s *Store }

func (r *bookRepo) Create(ctx context.Context, book *models.Book) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.Creates++
	if r.s.Err != nil {
		return r.s.Err
	}
	book.ID = r.s.id()
	if book.URL == "" {
		book.URL = xid.New().String()
	}
	book.CreatedAt = time.Now()
	r.s.books = append(r.s.books, *book)
	return nil
}

func (r *bookRepo) filter(keep func(models.Book) bool) ([]models.Book, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	var out []models.Book
	for _, b := range r.s.books {
		if keep(b) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *bookRepo) FindAll(ctx context.Context) ([]models.Book, error) {
	return r.filter(func(models.Book) bool { return true })
}

func (r *bookRepo) FindAllByOwner(ctx context.Context, ownerID uint) ([]models.Book, error) {
	return r.filter(func(b models.Book) bool { return b.UsuarioID == ownerID })
}

func (r *bookRepo) FindAllExceptOwner(ctx context.Context, ownerID uint) ([]models.Book, error) {
	return r.filter(func(b models.Book) bool { return b.UsuarioID != ownerID })
}

func (r *bookRepo) FindBySlug(ctx context.Context, slug string) (*models.Book, error) {
	found, err := r.filter(func(b models.Book) bool { return b.URL == slug })
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, repository.ErrNotFound
	}
	return &found[0], nil
}

func (r *bookRepo) FindByID(ctx context.Context, id uint) (*models.Book, error) {
	found, err := r.filter(func(b models.Book) bool { return b.ID == id })
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, repository.ErrNotFound
	}
	return &found[0], nil
}

func (r *bookRepo) Update(ctx context.Context, id uint, fields map[string]interface{}) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.Updates++
	if r.s.Err != nil {
		return 0, r.s.Err
	}
	for i := range r.s.books {
		b := &r.s.books[i]
		if b.ID != id {
			continue
		}
		for k, v := range fields {
			str, _ := v.(string)
			switch k {
			case "nombre":
				b.Nombre = str
			case "autor":
				b.Autor = str
			case "descripcion":
				b.Descripcion = str
			case "isbn":
				b.ISBN = str
			case "precio":
				b.Precio = str
			}
		}
		b.UpdatedAt = time.Now()
		return 1, nil
	}
	return 0, nil
}

func (r *bookRepo) DeleteBySlug(ctx context.Context, slug string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.Deletes++
	if r.s.Err != nil {
		return 0, r.s.Err
	}
	return r.s.deleteBookLocked(slug), nil
}

func (r *bookRepo) Count(ctx context.Context) (int64, error) {
	all, err := r.FindAll(ctx)
	return int64(len(all)), err
}

func (s *Store) deleteBookLocked(slug string) int64 {
	var n int64
	kept := s.books[:0]
	for _, b := range s.books {
		if b.URL == slug {
			n++
			continue
		}
		kept = append(kept, b)
	}
	s.books = kept
	return n
}

// ==================== users ====================

type userRepo struct{ s *Store }

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.Creates++
	if r.s.UserErr != nil {
		return r.s.UserErr
	}
	user.ID = r.s.id()
	r.s.users = append(r.s.users, *user)
	return nil
}

func (r *userRepo) find(match func(models.User) bool) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.UserErr != nil {
		return nil, r.s.UserErr
	}
	for _, u := range r.s.users {
		if match(u) {
			u := u
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) FindByID(ctx context.Context, id uint) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.ID == id })
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Email == email })
}

func (r *userRepo) ExistsByEmailOrUsername(ctx context.Context, email, username string, exceptID uint) (bool, error) {
	_, err := r.find(func(u models.User) bool {
		return u.ID != exceptID && (u.Email == email || u.Username == username)
	})
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *userRepo) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.Updates++
	if r.s.UserErr != nil {
		return r.s.UserErr
	}
	for i := range r.s.users {
		u := &r.s.users[i]
		if u.ID != id {
			continue
		}
		for k, v := range fields {
			str, _ := v.(string)
			switch k {
			case "username":
				u.Username = str
			case "fullname":
				u.Fullname = str
			case "email":
				u.Email = str
			case "age":
				u.Age = str
			case "phone":
				u.Phone = str
			case "address":
				u.Address = str
			}
		}
	}
	return nil
}

func (r *userRepo) FindAll(ctx context.Context) ([]models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.UserErr != nil {
		return nil, r.s.UserErr
	}
	return append([]models.User(nil), r.s.users...), nil
}

func (r *userRepo) Count(ctx context.Context) (int64, error) {
	all, err := r.FindAll(ctx)
	return int64(len(all)), err
}

// ==================== comments ====================

type commentRepo struct{ s *Store }

func (r *commentRepo) Create(ctx context.Context, comment *models.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.Creates++
	if r.s.Err != nil {
		return r.s.Err
	}
	comment.ID = r.s.id()
	comment.CreatedAt = time.Now()
	r.s.comments = append([]models.Comment{*comment}, r.s.comments...)
	return nil
}

func (r *commentRepo) FindAll(ctx context.Context) ([]models.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	return append([]models.Comment(nil), r.s.comments...), nil
}

// ==================== sales ====================

type saleRepo struct{ s *Store }

func (r *saleRepo) Purchase(ctx context.Context, book *models.Book, buyer *models.User) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.Purchases++
	if r.s.Err != nil {
		return 0, r.s.Err
	}
	deleted := r.s.deleteBookLocked(book.URL)
	if deleted == 0 {
		return 0, nil
	}
	sale := models.NewSaleFromBook(book, buyer)
	sale.ID = r.s.id()
	sale.CreatedAt = time.Now()
	r.s.sales = append(r.s.sales, *sale)
	r.s.shipments = append(r.s.shipments, models.Shipment{
		ID:        r.s.id(),
		SaleID:    sale.ID,
		BookName:  book.Nombre,
		BuyerID:   buyer.ID,
		BuyerName: buyer.Username,
		Address:   buyer.Address,
		Status:    models.ShipmentPending,
		CreatedAt: time.Now(),
	})
	return deleted, nil
}

func (r *saleRepo) filter(keep func(models.Sale) bool) ([]models.Sale, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	var out []models.Sale
	for _, sale := range r.s.sales {
		if keep(sale) {
			out = append(out, sale)
		}
	}
	return out, nil
}

func (r *saleRepo) FindAll(ctx context.Context) ([]models.Sale, error) {
	return r.filter(func(models.Sale) bool { return true })
}

func (r *saleRepo) FindBySeller(ctx context.Context, sellerID uint) ([]models.Sale, error) {
	return r.filter(func(sale models.Sale) bool { return sale.SellerID == sellerID })
}

func (r *saleRepo) FindByBuyer(ctx context.Context, buyerID uint) ([]models.Sale, error) {
	return r.filter(func(sale models.Sale) bool { return sale.BuyerID == buyerID })
}

func (r *saleRepo) FindShipments(ctx context.Context) ([]models.Shipment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	return append([]models.Shipment(nil), r.s.shipments...), nil
}

func (r *saleRepo) DeleteShipment(ctx context.Context, id uint) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.Deletes++
	if r.s.Err != nil {
		return 0, r.s.Err
	}
	for i, sh := range r.s.shipments {
		if sh.ID == id {
			r.s.shipments = append(r.s.shipments[:i], r.s.shipments[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (r *saleRepo) Count(ctx context.Context) (int64, error) {
	all, err := r.FindAll(ctx)
	return int64(len(all)), err
}

func (r *saleRepo) CountPendingShipments(ctx context.Context) (int64, error) {
	all, err := r.FindShipments(ctx)
	var n int64
	for _, sh := range all {
		if sh.Status == models.ShipmentPending {
			n++
		}
	}
	return n, err
}
