package merchant

import (
	"github.com/wuyi-mall/internal/provider"
)

// Handler 商家侧接口处理器
type Handler struct {
	*provider.Container
}

// New 创建商家侧处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
