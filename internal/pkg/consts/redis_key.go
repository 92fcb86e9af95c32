package consts

const (
	DraftSessionKey   = "draft:session:"
	ListingDetailKey  = "listing:detail:"
	TokenBlacklistKey = "token:blacklist:"
	MediaTempKey      = "media:temp"
)

const (
	DraftLock   = "draft:lock:"
	CleanupLock = "lock:media:cleanup"
)
