package handler

import (
	"Vitrin/internal/api/dto"
	"Vitrin/internal/pkg/response"
	"Vitrin/internal/service"
	"io"
	"mime/multipart"
	"strconv"

	"github.com/gin-gonic/gin"
)

const mediaFormField = "files"

type DraftHandler struct {
	draftSvc service.DraftService
}

func NewDraftHandler(draftSvc service.DraftService) *DraftHandler {
	return &DraftHandler{draftSvc: draftSvc}
}

func (s *DraftHandler) CreateDraft(c *gin.Context) {
	var req dto.CreateDraftDTO
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && err != io.EOF {
			response.Error(c, err)
			return
		}
	}
	draft, err := s.draftSvc.CreateDraft(c.Request.Context(), c.GetUint64("admin_id"), req.ListingID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, draft)
}

func (s *DraftHandler) GetDraft(c *gin.Context) {
	draft, err := s.draftSvc.GetDraft(c.Request.Context(), c.Param("draft_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, draft)
}

func (s *DraftHandler) UpdateFields(c *gin.Context) {
	var req dto.DraftFieldsDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}
	draft, err := s.draftSvc.UpdateFields(c.Request.Context(), c.Param("draft_id"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, draft)
}

func (s *DraftHandler) SetCategory(c *gin.Context) {
	var req dto.DraftCategoryDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}
	draft, err := s.draftSvc.SetCategory(c.Request.Context(), c.Param("draft_id"), req.Category)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, draft)
}

func (s *DraftHandler) SetAttributes(c *gin.Context) {
	var req dto.DraftAttributesDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}
	draft, err := s.draftSvc.SetAttributes(c.Request.Context(), c.Param("draft_id"), req.Values)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, draft)
}

// StageMedia multipart 上传，同一批文件全部成功或全部失败
func (s *DraftHandler) StageMedia(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	headers := form.File[mediaFormField]
	if len(headers) == 0 {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	files := make([]service.StageFile, 0, len(headers))
	opened := make([]multipart.File, 0, len(headers))
	defer func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}()
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			response.Error(c, service.ErrParamInvalid)
			return
		}
		opened = append(opened, f)
		files = append(files, service.StageFile{Name: h.Filename, Size: h.Size, Body: f})
	}

	draft, err := s.draftSvc.StageMedia(c.Request.Context(), c.Param("draft_id"), files)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, draft)
}

func (s *DraftHandler) RemoveMedia(c *gin.Context) {
	index, err := mediaIndex(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	draft, err := s.draftSvc.RemoveMedia(c.Request.Context(), c.Param("draft_id"), index)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, draft)
}

// MoveMedia 处理 left、right、cover 三种移动
func (s *DraftHandler) MoveMedia(direction string) gin.HandlerFunc {
	return func(c *gin.Context) {
		index, err := mediaIndex(c)
		if err != nil {
			response.Error(c, err)
			return
		}
		draft, err := s.draftSvc.MoveMedia(c.Request.Context(), c.Param("draft_id"), index, direction)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, draft)
	}
}

func (s *DraftHandler) Submit(c *gin.Context) {
	res, err := s.draftSvc.Submit(c.Request.Context(), c.Param("draft_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (s *DraftHandler) Discard(c *gin.Context) {
	if err := s.draftSvc.Discard(c.Request.Context(), c.Param("draft_id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func mediaIndex(c *gin.Context) (int, error) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return 0, service.ErrParamInvalid
	}
	return index, nil
}
