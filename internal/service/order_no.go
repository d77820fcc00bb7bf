package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// GenerateOrderNo 生成订单编号：日期（8 位）+ 随机数（6 位）+ 用户ID 尾号（4 位）。
// 随机段降低同日同用户碰撞概率，唯一索引兜底
func GenerateOrderNo(userID uint, now time.Time) string {
	random, err := rand.Int(rand.Reader, big.NewInt(1000000))
	randomPart := int64(0)
	if err == nil {
		randomPart = random.Int64()
	} else {
		randomPart = now.UnixNano() % 1000000
	}
	return fmt.Sprintf("%s%06d%04d", now.Format("20060102"), randomPart, userID%10000)
}
