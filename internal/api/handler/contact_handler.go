package handler

import (
	"Vitrin/internal/api/dto"
	"Vitrin/internal/pkg/response"
	"Vitrin/internal/service"

	"github.com/gin-gonic/gin"
)

type ContactHandler struct {
	contactSvc service.ContactService
}

func NewContactHandler(contactSvc service.ContactService) *ContactHandler {
	return &ContactHandler{contactSvc: contactSvc}
}

func (s *ContactHandler) SubmitContact(c *gin.Context) {
	id, err := listingID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.ContactDTO
	if err = c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}
	msg, err := s.contactSvc.SubmitContact(c.Request.Context(), id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"id": msg.ID})
}

func (s *ContactHandler) ListContacts(c *gin.Context) {
	var q dto.ContactQueryDTO
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, err)
		return
	}
	page, err := s.contactSvc.ListContacts(c.Request.Context(), &q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, page)
}

func (s *ContactHandler) MarkRead(c *gin.Context) {
	if err := s.contactSvc.MarkRead(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
