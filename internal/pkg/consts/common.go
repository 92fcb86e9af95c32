package consts

const (
	MimePrefixImage = "image"
	MimePrefixVideo = "video"
)

const (
	RoleAdmin  = "ADMIN"
	RoleEditor = "EDITOR"
)

const (
	DefaultPageSize = 12
	MaxPageSize     = 48
)

// ContactEventChannel 新留言推送给在线管理员的频道
const ContactEventChannel = "contact:events"

const (
	ListingStatusDeleted = 1
)
