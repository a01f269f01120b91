package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"estanteria_go/config"
	"estanteria_go/models"
	"estanteria_go/repository"
	"estanteria_go/storage"
	"estanteria_go/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	// ErrBookNotFound 书籍不存在
	ErrBookNotFound = errors.New("book not found")
	// ErrNotOwner 当前用户不是书籍所有者
	ErrNotOwner = errors.New("book belongs to another user")
	// ErrSelfPurchase 不能购买自己的书
	ErrSelfPurchase = errors.New("cannot purchase own book")
	// ErrInvalidCover 封面不是允许的图片格式或超过大小限制
	ErrInvalidCover = storage.ErrInvalidFile
)

// MsgInvalidCover 封面无效时的提示
const MsgInvalidCover = "La portada debe ser una imagen jpg, png, gif o webp dentro del tamaño permitido."

const (
	bookCacheTTL = 10 * time.Minute
	fechaLayout  = "2006-01-02"
)

// SaleNotifier 售出通知（卖家实时收到消息）
type SaleNotifier interface {
	BookSold(ctx context.Context, book *models.Book, buyer *models.User)
}

// BookService 书籍服务
type BookService struct {
	books      repository.BookRepository
	sales      repository.SaleRepository
	rdb        *redis.Client
	images     storage.ImageStore
	notifier   SaleNotifier
	marketMode string
	log        *zap.Logger
	now        func() time.Time
}

// BookServiceOption 书籍服务可选项
type BookServiceOption func(*BookService)

// WithBookCache 启用 Redis 书籍详情缓存
func WithBookCache(rdb *redis.Client) BookServiceOption {
	return func(bs *BookService) { bs.rdb = rdb }
}

// WithImageStore 设置封面存储
func WithImageStore(store storage.ImageStore) BookServiceOption {
	return func(bs *BookService) { bs.images = store }
}

// WithSaleNotifier 设置售出通知
func WithSaleNotifier(n SaleNotifier) BookServiceOption {
	return func(bs *BookService) { bs.notifier = n }
}

// WithClock 替换时间来源
func WithClock(now func() time.Time) BookServiceOption {
	return func(bs *BookService) { bs.now = now }
}

// NewBookService 创建书籍服务实例
func NewBookService(books repository.BookRepository, sales repository.SaleRepository, marketMode string, log *zap.Logger, opts ...BookServiceOption) *BookService {
	if log == nil {
		log = zap.NewNop()
	}
	bs := &BookService{
		books:      books,
		sales:      sales,
		marketMode: marketMode,
		log:        log,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(bs)
	}
	return bs
}

// Hardened 是否为严格校验模式
func (bs *BookService) Hardened() bool {
	return bs.marketMode == config.ModeHardened
}

// ==================== 请求结构 ====================

// CreateBookRequest 创建书籍请求（字段顺序即校验顺序）
type CreateBookRequest struct {
	Nombre        string `form:"nombre" validate:"required"`
	Autor         string `form:"autor" validate:"required"`
	Descripcion   string `form:"descripcion" validate:"required"`
	Precio        string `form:"precio" validate:"required"`
	ISBN          string `form:"ISBN" validate:"required"`
	Fecha         string `form:"fecha"`
	Imagen        string `form:"-"` // 与上传文件同名，由控制器单独读取
	Vendedor      string `form:"vendedor"`
	EmailVendedor string `form:"emailVendedor"`
}

// CreateBookMessages 创建书籍时字段为空的提示
var CreateBookMessages = utils.FieldMessages{
	"nombre":      "El nombre del libro no puede estar vacia.",
	"autor":       "El autor del libro no puede estar vacia.",
	"descripcion": "La descripción del libro no puede estar vacia.",
	"precio":      "El precio del libro no puede estar vacia.",
	"ISBN":        "El ISBN del libro no puede estar vacia.",
}

// UpdateBookRequest 更新书籍请求
type UpdateBookRequest struct {
	ID          string `form:"id"`
	Nombre      string `form:"nombre" validate:"required"`
	Autor       string `form:"autor" validate:"required"`
	Descripcion string `form:"descripcion" validate:"required"`
	Precio      string `form:"precio" validate:"required"`
	ISBN        string `form:"ISBN" validate:"required"`
}

// UpdateBookMessages 更新书籍时字段为空的提示
var UpdateBookMessages = utils.FieldMessages{
	"nombre":      "¡El nombre del libro no puede ser vacío!",
	"autor":       "¡El autor del libro no puede estar vacia!",
	"descripcion": "¡La descripción del libro no puede estar vacia!",
	"precio":      "¡El precio del libro no puede estar vacio!",
	"ISBN":        "¡El ISBN del libro no puede estar vacio!",
}

// BookListing 列表中的书籍及其相对发布时间
type BookListing struct {
	models.Book
	Hace string
}

// ==================== CRUD操作 ====================

// CreateBook 创建书籍，所有者和状态由服务端决定
func (bs *BookService) CreateBook(ctx context.Context, owner *models.User, req *CreateBookRequest, cover *multipart.FileHeader) (*models.Book, error) {
	imagen := req.Imagen
	if cover != nil && bs.images != nil {
		ref, err := bs.images.Save(ctx, cover)
		if err != nil {
			return nil, fmt.Errorf("save cover: %w", err)
		}
		imagen = ref
	}

	book := &models.Book{
		Nombre:        req.Nombre,
		Autor:         req.Autor,
		Precio:        req.Precio,
		Descripcion:   req.Descripcion,
		ISBN:          req.ISBN,
		Fecha:         bs.parseFecha(req.Fecha),
		Imagen:        imagen,
		Estado:        models.BookStatusForSale,
		UsuarioID:     owner.ID,
		Vendedor:      req.Vendedor,
		EmailVendedor: req.EmailVendedor,
	}

	if err := bs.books.Create(ctx, book); err != nil {
		bs.log.Error("create book failed", zap.Uint("owner", owner.ID), zap.Error(err))
		if imagen != req.Imagen {
			if derr := bs.images.Delete(ctx, imagen); derr != nil {
				bs.log.Warn("remove orphan cover failed", zap.String("ref", imagen), zap.Error(derr))
			}
		}
		return nil, err
	}
	return book, nil
}

// UpdateBook 按 id 更新书籍
// 宽松模式下不校验所有者；严格模式下只有所有者可以更新
func (bs *BookService) UpdateBook(ctx context.Context, user *models.User, id uint, req *UpdateBookRequest) error {
	current, err := bs.books.FindByID(ctx, id)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		if bs.Hardened() {
			return ErrBookNotFound
		}
	default:
		if bs.Hardened() {
			return err
		}
		bs.log.Warn("load book before update failed", zap.Uint("book_id", id), zap.Error(err))
	}

	if bs.Hardened() && !current.IsOwnedBy(user.ID) {
		return ErrNotOwner
	}

	fields := map[string]interface{}{
		"nombre":      req.Nombre,
		"autor":       req.Autor,
		"descripcion": req.Descripcion,
		"isbn":        req.ISBN,
		"precio":      req.Precio,
	}
	if _, err := bs.books.Update(ctx, id, fields); err != nil {
		bs.log.Error("update book failed", zap.Uint("book_id", id), zap.Error(err))
		return err
	}

	if current == nil && bs.rdb != nil {
		// 更新前没能读到书籍，重新查询 url 以清除缓存
		if reloaded, err := bs.books.FindByID(ctx, id); err == nil {
			current = reloaded
		}
	}
	if current != nil {
		bs.invalidate(ctx, current.URL)
	}
	return nil
}

// ==================== 查询方法 ====================

// ListOthers 其他用户出售的书籍
func (bs *BookService) ListOthers(ctx context.Context, user *models.User) ([]BookListing, error) {
	books, err := bs.books.FindAllExceptOwner(ctx, user.ID)
	if err != nil {
		bs.log.Error("list books failed", zap.Uint("user_id", user.ID), zap.Error(err))
		return nil, err
	}
	return bs.annotate(books), nil
}

// ListOwn 当前用户自己的书架
func (bs *BookService) ListOwn(ctx context.Context, user *models.User) ([]BookListing, error) {
	books, err := bs.books.FindAllByOwner(ctx, user.ID)
	if err != nil {
		bs.log.Error("list shelf failed", zap.Uint("user_id", user.ID), zap.Error(err))
		return nil, err
	}
	return bs.annotate(books), nil
}

// ListAll 全部书籍（管理员）
func (bs *BookService) ListAll(ctx context.Context) ([]BookListing, error) {
	books, err := bs.books.FindAll(ctx)
	if err != nil {
		bs.log.Error("list all books failed", zap.Error(err))
		return nil, err
	}
	return bs.annotate(books), nil
}

// GetBySlug 按 url 获取书籍，只有所有者可以查看
func (bs *BookService) GetBySlug(ctx context.Context, user *models.User, slug string) (*BookListing, error) {
	book, err := bs.findBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !book.IsOwnedBy(user.ID) {
		return nil, ErrNotOwner
	}
	return &BookListing{Book: *book, Hace: utils.TimeAgo(book.Fecha, bs.now())}, nil
}

// ==================== 购买 ====================

// Purchase 购买书籍，返回删除的行数
// 宽松模式下无论书籍是否存在都视为成功
func (bs *BookService) Purchase(ctx context.Context, buyer *models.User, slug string) (int64, error) {
	book, err := bs.books.FindBySlug(ctx, slug)
	if errors.Is(err, repository.ErrNotFound) {
		if bs.Hardened() {
			return 0, ErrBookNotFound
		}
		n, err := bs.books.DeleteBySlug(ctx, slug)
		if err != nil {
			bs.log.Error("purchase delete failed", zap.String("url", slug), zap.Error(err))
			return 0, err
		}
		return n, nil
	}
	if err != nil {
		bs.log.Error("purchase lookup failed", zap.String("url", slug), zap.Error(err))
		return 0, err
	}

	if bs.Hardened() && book.IsOwnedBy(buyer.ID) {
		return 0, ErrSelfPurchase
	}

	n, err := bs.sales.Purchase(ctx, book, buyer)
	if err != nil {
		bs.log.Error("purchase failed", zap.String("url", slug), zap.Uint("buyer", buyer.ID), zap.Error(err))
		return 0, err
	}

	bs.invalidate(ctx, slug)
	if n > 0 && bs.notifier != nil {
		bs.notifier.BookSold(ctx, book, buyer)
	}
	bs.log.Info("book purchased",
		zap.String("url", slug),
		zap.Uint("seller", book.UsuarioID),
		zap.Uint("buyer", buyer.ID),
	)
	return n, nil
}

// ==================== 辅助方法 ====================

func (bs *BookService) annotate(books []models.Book) []BookListing {
	now := bs.now()
	out := make([]BookListing, 0, len(books))
	for _, b := range books {
		out = append(out, BookListing{Book: b, Hace: utils.TimeAgo(b.Fecha, now)})
	}
	return out
}

// parseFecha 解析发布日期，空值或格式错误时使用当前时间
func (bs *BookService) parseFecha(raw string) time.Time {
	if raw == "" {
		return bs.now()
	}
	t, err := time.Parse(fechaLayout, raw)
	if err != nil {
		return bs.now()
	}
	return t
}

// findBySlug 优先读取缓存，未命中时查询数据库并回填
func (bs *BookService) findBySlug(ctx context.Context, slug string) (*models.Book, error) {
	key := bookCacheKey(slug)
	if bs.rdb != nil {
		cached, err := bs.rdb.Get(ctx, key).Result()
		if err == nil {
			var book models.Book
			if json.Unmarshal([]byte(cached), &book) == nil {
				return &book, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			bs.log.Warn("book cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	book, err := bs.books.FindBySlug(ctx, slug)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		bs.log.Error("find book failed", zap.String("url", slug), zap.Error(err))
		return nil, err
	}

	if bs.rdb != nil {
		if data, err := json.Marshal(book); err == nil {
			if err := bs.rdb.Set(ctx, key, data, bookCacheTTL).Err(); err != nil {
				bs.log.Warn("book cache write failed", zap.String("key", key), zap.Error(err))
			}
		}
	}
	return book, nil
}

// invalidate 清除书籍缓存，失败只记录日志
func (bs *BookService) invalidate(ctx context.Context, slug string) {
	if bs.rdb == nil || slug == "" {
		return
	}
	if err := bs.rdb.Del(ctx, bookCacheKey(slug)).Err(); err != nil {
		bs.log.Warn("book cache invalidate failed", zap.String("url", slug), zap.Error(err))
	}
}

func bookCacheKey(slug string) string {
	return fmt.Sprintf("book:%s", slug)
}
