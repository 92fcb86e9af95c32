package handler

import (
	"Vitrin/internal/api/dto"
	"Vitrin/internal/pkg/response"
	"Vitrin/internal/pkg/util"
	"Vitrin/internal/service"

	"github.com/gin-gonic/gin"
)

type ListingHandler struct {
	listingSvc service.ListingService
}

func NewListingHandler(listingSvc service.ListingService) *ListingHandler {
	return &ListingHandler{listingSvc: listingSvc}
}

func (s *ListingHandler) GetCategories(c *gin.Context) {
	response.Success(c, s.listingSvc.Categories())
}

func (s *ListingHandler) ListListings(c *gin.Context) {
	var q dto.ListingQueryDTO
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, err)
		return
	}
	page, err := s.listingSvc.ListListings(c.Request.Context(), &q, false)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, page)
}

// ListAllListings 后台列表，包含未发布的房源
func (s *ListingHandler) ListAllListings(c *gin.Context) {
	var q dto.ListingQueryDTO
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, err)
		return
	}
	page, err := s.listingSvc.ListListings(c.Request.Context(), &q, true)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, page)
}

func (s *ListingHandler) SearchListings(c *gin.Context) {
	var q dto.ListingSearchDTO
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, err)
		return
	}
	page, err := s.listingSvc.SearchListings(c.Request.Context(), &q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, page)
}

func (s *ListingHandler) GetListing(c *gin.Context) {
	id, err := listingID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	detail, err := s.listingSvc.GetListingDetail(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, detail)
}

func (s *ListingHandler) DeleteListing(c *gin.Context) {
	id, err := listingID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err = s.listingSvc.DeleteListing(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func listingID(c *gin.Context) (uint64, error) {
	id, err := util.StrToUint64(c.Param("id"))
	if err != nil || id == 0 {
		return 0, service.ErrListingNotFound
	}
	return id, nil
}
