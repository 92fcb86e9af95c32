package dto

// Response 统一返回结构，业务码见 service.ErrorMap
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}
