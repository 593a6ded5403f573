package httpserver

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/store"
	"github.com/Makepad-fr/tada/pkg/response"
)

var errEmptyDescription = errors.New("description is required")

// listTodos handles GET /api/todos[?due=bool][&complete=bool].
func (srv *HTTPServer) listTodos(c *gin.Context) {
	ctx := c.Request.Context()

	q := store.Query{Today: model.NewDate(srv.now())}
	var err error
	if q.Due, err = boolParam(c, "due"); err != nil {
		response.BadRequest(c, err)
		return
	}
	if q.Complete, err = boolParam(c, "complete"); err != nil {
		response.BadRequest(c, err)
		return
	}

	items, err := srv.store.List(ctx, q)
	if err != nil {
		srv.l.Errorf(ctx, "store.List: %v", err)
		response.InternalError(c, err)
		return
	}
	response.OK(c, items)
}

// createTodo handles POST /api/todos/create with {description, due_date?}.
func (srv *HTTPServer) createTodo(c *gin.Context) {
	ctx := c.Request.Context()

	var req model.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, fmt.Errorf("invalid body: %w", err))
		return
	}
	req.Description = strings.TrimSpace(req.Description)
	if req.Description == "" {
		response.BadRequest(c, errEmptyDescription)
		return
	}

	it, err := srv.store.Create(ctx, req)
	if err != nil {
		srv.l.Errorf(ctx, "store.Create: %v", err)
		response.InternalError(c, err)
		return
	}
	srv.l.Debugf(ctx, "created todo %d", it.ID)
	response.OK(c, it)
}

// updateTodo handles PATCH /api/todos/:id with {is_completed?, starred?}.
// The body is parsed as JSON whatever Content-Type says.
func (srv *HTTPServer) updateTodo(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := idParam(c)
	if !ok {
		return
	}
	var req model.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, fmt.Errorf("invalid body: %w", err))
		return
	}

	it, err := srv.store.Update(ctx, id, req)
	if err != nil {
		srv.storeError(c, "store.Update", err)
		return
	}
	response.OK(c, it)
}

// deleteTodo handles DELETE /api/todos/:id.
func (srv *HTTPServer) deleteTodo(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := srv.store.Delete(ctx, id); err != nil {
		srv.storeError(c, "store.Delete", err)
		return
	}
	response.OK(c, gin.H{})
}

func (srv *HTTPServer) storeError(c *gin.Context, op string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		response.NotFound(c)
		return
	}
	srv.l.Errorf(c.Request.Context(), "%s: %v", op, err)
	response.InternalError(c, err)
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, fmt.Errorf("invalid id %q", c.Param("id")))
		return 0, false
	}
	return id, true
}

func boolParam(c *gin.Context, name string) (*bool, error) {
	raw, ok := c.GetQuery(name)
	if !ok {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("query %s must be a boolean, got %q", name, raw)
	}
	return &b, nil
}
