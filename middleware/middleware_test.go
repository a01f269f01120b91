package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"estanteria_go/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubResolver struct {
	users map[string]*models.User
}

func (s stubResolver) ResolveSession(_ context.Context, token string) (*models.User, error) {
	if u, ok := s.users[token]; ok {
		return u, nil
	}
	return nil, errors.New("invalid token")
}

func newAuthRouter() *gin.Engine {
	resolver := stubResolver{users: map[string]*models.User{
		"ordinario": {ID: 5, Username: "paul", Role: models.RoleOrdinary},
		"admin":     {ID: 2, Username: "jessica", Role: models.RoleAdministrator},
	}}

	r := gin.New()
	r.GET("/",
		AuthMiddleware(resolver),
		AdminGate(func(c *gin.Context) { c.String(http.StatusOK, "admin-home") }),
		func(c *gin.Context) {
			user, _ := CurrentUser(c.Request.Context())
			c.String(http.StatusOK, "hola "+user.Username)
		})
	r.GET("/ventas_globales", AuthMiddleware(resolver), RequireAdmin(), func(c *gin.Context) {
		c.String(http.StatusOK, "ventas")
	})
	return r
}

func doGet(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddlewareRedirectsAnonymous(t *testing.T) {
	r := newAuthRouter()

	w := doGet(r, "/", "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, LoginPath, w.Header().Get("Location"))

	w = doGet(r, "/", "falso")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, LoginPath, w.Header().Get("Location"))
}

func TestAdminGateBranches(t *testing.T) {
	r := newAuthRouter()

	w := doGet(r, "/", "admin")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin-home", w.Body.String())

	w = doGet(r, "/", "ordinario")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hola paul", w.Body.String())
}

func TestRequireAdmin(t *testing.T) {
	r := newAuthRouter()

	w := doGet(r, "/ventas_globales", "ordinario")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	w = doGet(r, "/ventas_globales", "admin")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ventas", w.Body.String())
}

func TestSanitizeTrimsAndEscapes(t *testing.T) {
	r := gin.New()
	type form struct {
		Nombre string `form:"nombre"`
		Autor  string `form:"autor"`
		Otro   string `form:"otro"`
	}
	r.POST("/f", Sanitize("nombre", "autor"), func(c *gin.Context) {
		var f form
		require.NoError(t, c.ShouldBind(&f))
		c.JSON(http.StatusOK, gin.H{"nombre": f.Nombre, "autor": f.Autor, "otro": f.Otro, "post": c.PostForm("nombre")})
	})

	body := url.Values{"nombre": {"  <b>Dune</b> "}, "autor": {"   "}, "otro": {"  sin tocar "}}
	req := httptest.NewRequest(http.MethodPost, "/f", strings.NewReader(body.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"nombre":"&lt;b&gt;Dune&lt;/b&gt;","autor":"","otro":"  sin tocar ","post":"&lt;b&gt;Dune&lt;/b&gt;"}`, w.Body.String())
}

func TestSanitizeCoversQueryValues(t *testing.T) {
	r := gin.New()
	r.POST("/f", Sanitize("nombre"), func(c *gin.Context) {
		c.String(http.StatusOK, "%s", c.Request.Form.Get("nombre"))
	})

	target := "/f?nombre=" + url.QueryEscape(" <script>alert(1)</script>")
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader("autor=Herbert"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "&lt;script&gt;alert(1)&lt;/script&gt;", w.Body.String())
}

func TestLoggerSetsRequestIDAndWritesStream(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	al := NewAccessLogger(zap.NewNop(), rdb)
	al.Start()

	r := gin.New()
	r.Use(Logger(al))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	w := doGet(r, "/ping", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "fijo-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "fijo-123", w.Header().Get("X-Request-ID"))

	al.Close()

	assert.Eventually(t, func() bool {
		n, err := rdb.XLen(context.Background(), AccessLogStream).Result()
		return err == nil && n == 2
	}, time.Second, 10*time.Millisecond)
}

func TestAccessLoggerDropsAfterClose(t *testing.T) {
	al := NewAccessLogger(zap.NewNop(), nil)
	al.Start()

	r := gin.New()
	r.Use(Logger(al))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	al.Close()
	al.Close()

	assert.NotPanics(t, func() {
		w := doGet(r, "/ping", "")
		assert.Equal(t, http.StatusOK, w.Code)
	})
	assert.Empty(t, al.queue)
}

func TestCurrentUserMissing(t *testing.T) {
	_, ok := CurrentUser(context.Background())
	assert.False(t, ok)

	ctx := WithUser(context.Background(), nil)
	_, ok = CurrentUser(ctx)
	assert.False(t, ok)
}
