package shared

import (
	"strconv"

	"github.com/wuyi-mall/internal/http/response"

	"github.com/gin-gonic/gin"
)

const (
	// ContextUserID 鉴权中间件写入的用户 ID
	ContextUserID = "user_id"
	// ContextUsername 鉴权中间件写入的用户名
	ContextUsername = "username"
	// ContextRole 鉴权中间件写入的角色
	ContextRole = "role"
	// ContextShopID 鉴权中间件写入的商铺 ID（商家）
	ContextShopID = "shop_id"
)

// CurrentUserID 读取当前用户 ID，缺失时返回 401
func CurrentUserID(c *gin.Context) (uint, bool) {
	return contextUint(c, ContextUserID, true)
}

// CurrentShopID 读取当前商家的商铺 ID，缺失时返回 403
func CurrentShopID(c *gin.Context) (uint, bool) {
	shopID, ok := contextUint(c, ContextShopID, false)
	if !ok {
		return 0, false
	}
	if shopID == 0 {
		response.Forbidden(c, "当前账号未绑定商铺")
		return 0, false
	}
	return shopID, true
}

// CurrentRole 读取当前用户角色
func CurrentRole(c *gin.Context) string {
	value, ok := c.Get(ContextRole)
	if !ok {
		return ""
	}
	if role, ok := value.(string); ok {
		return role
	}
	return ""
}

// ParamID 解析路径中的数字 ID
func ParamID(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		response.BadRequest(c, "ID 参数不合法")
		return 0, false
	}
	return uint(id), true
}

func contextUint(c *gin.Context, key string, required bool) (uint, bool) {
	value, exists := c.Get(key)
	if !exists {
		if required {
			response.Unauthorized(c, "未登录或登录已过期")
			return 0, false
		}
		return 0, true
	}
	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		if v < 0 {
			response.BadRequest(c, "上下文参数不合法")
			return 0, false
		}
		return uint(v), true
	case float64:
		if v < 0 {
			response.BadRequest(c, "上下文参数不合法")
			return 0, false
		}
		return uint(v), true
	default:
		response.Error(c, response.CodeInternal, "上下文参数类型错误")
		return 0, false
	}
}
