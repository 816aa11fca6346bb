package redisrepo

import (
	"fmt"

	"github.com/BloggingApp/feed-client/internal/model"
)

const (
	VIEW_KEY = "feed-client:view:%s" // <viewKey>
)

func ViewKey(key model.ViewKey) string {
	return fmt.Sprintf(VIEW_KEY, key.String())
}
