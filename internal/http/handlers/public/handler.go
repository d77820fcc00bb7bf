package public

import (
	"github.com/wuyi-mall/internal/provider"
)

// Handler 买家侧接口处理器
type Handler struct {
	*provider.Container
}

// New 创建买家侧处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
