package comments

import (
	"context"
	"net/http"

	"github.com/dalemusser/busybee/internal/app/policy/grouppolicy"
	"github.com/dalemusser/busybee/internal/app/system/authz"
	"github.com/dalemusser/busybee/internal/app/system/commenttree"
	"github.com/dalemusser/busybee/internal/app/system/inputval"
	"github.com/dalemusser/busybee/internal/app/system/respond"
	"github.com/dalemusser/busybee/internal/app/system/timeouts"
	"github.com/dalemusser/busybee/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type createRequest struct {
	Content         string  `json:"content"`
	ParentCommentID *string `json:"parentCommentId" validate:"omitempty,objectid"`
	ThreadID        *string `json:"threadId" validate:"omitempty,max=128"`
	BlockID         *string `json:"blockId" validate:"omitempty,max=128"`
}

type updateRequest struct {
	Content  *string                 `json:"content"`
	Metadata *models.CommentMetadata `json:"metadata"`
}

type threadsResponse struct {
	Comments []*commenttree.Node `json:"comments"`
}

func noteID(r *http.Request) (primitive.ObjectID, error) {
	return inputval.ObjectID("noteId", chi.URLParam(r, "noteId"))
}

// ServeThreads handles GET /comments and returns reply trees, oldest
// thread first.
func (h *Handler) ServeThreads(w http.ResponseWriter, r *http.Request) {
	g, _ := grouppolicy.Group(r)
	nid, err := noteID(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	roots, err := h.Tree.List(ctx, nid, g.ID)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, threadsResponse{Comments: roots})
}

// HandleCreate handles POST /comments.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	g, _ := grouppolicy.Group(r)
	uid, _ := authz.UserID(r)
	nid, err := noteID(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	var req createRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if err := inputval.Struct(req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	in := commenttree.CreateInput{
		NoteID:   nid,
		GroupID:  g.ID,
		UserID:   uid,
		Content:  req.Content,
		ThreadID: req.ThreadID,
		BlockID:  req.BlockID,
	}
	if req.ParentCommentID != nil && *req.ParentCommentID != "" {
		pid, err := inputval.ObjectID("parentCommentId", *req.ParentCommentID)
		if err != nil {
			respond.Error(w, r, h.Log, err)
			return
		}
		in.ParentCommentID = &pid
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	node, err := h.Tree.Create(ctx, in)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, node)
}

// HandleUpdate handles PATCH /comments/{commentId}. Only the author may edit.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	uid, _ := authz.UserID(r)
	nid, err := noteID(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	cid, err := inputval.ObjectID("commentId", chi.URLParam(r, "commentId"))
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	var req updateRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if req.Metadata != nil {
		if err := inputval.Struct(req.Metadata); err != nil {
			respond.Error(w, r, h.Log, err)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, err := h.Tree.Update(ctx, commenttree.UpdateInput{
		CommentID: cid,
		CallerID:  uid,
		NoteID:    &nid,
		Content:   req.Content,
		Metadata:  req.Metadata,
	})
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, c)
}

// HandleDelete handles DELETE /comments/{commentId}. The author or the
// group owner may delete; replies are removed with it.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	g, _ := grouppolicy.Group(r)
	uid, _ := authz.UserID(r)
	nid, err := noteID(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	cid, err := inputval.ObjectID("commentId", chi.URLParam(r, "commentId"))
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	n, err := h.Tree.Delete(ctx, commenttree.DeleteInput{
		CommentID: cid,
		CallerID:  uid,
		GroupID:   g.ID,
		NoteID:    &nid,
	})
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.Log.Debug("comment deleted",
		zap.String("comment_id", cid.Hex()),
		zap.Int64("removed", n))
	respond.NoContent(w)
}
