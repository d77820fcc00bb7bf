package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/wuyi-mall/internal/models"
)

// 折扣活动列表缓存时间。库存与优惠券余量绝不进缓存，只缓存活动条款
const activityCacheTTL = 60 * time.Second

func shopActivitiesKey(shopID uint) string {
	return fmt.Sprintf("activity:shop:%d", shopID)
}

// GetShopActivities 获取商铺在线折扣活动缓存
func GetShopActivities(ctx context.Context, shopID uint) ([]models.DiscountActivity, bool, error) {
	if shopID == 0 {
		return nil, false, nil
	}
	var activities []models.DiscountActivity
	hit, err := GetJSON(ctx, shopActivitiesKey(shopID), &activities)
	if err != nil || !hit {
		return nil, hit, err
	}
	return activities, true, nil
}

// SetShopActivities 写入商铺在线折扣活动缓存
func SetShopActivities(ctx context.Context, shopID uint, activities []models.DiscountActivity) error {
	if shopID == 0 {
		return nil
	}
	return SetJSON(ctx, shopActivitiesKey(shopID), activities, activityCacheTTL)
}

// DelShopActivities 活动变更后删除缓存
func DelShopActivities(ctx context.Context, shopID uint) error {
	if shopID == 0 {
		return nil
	}
	return Del(ctx, shopActivitiesKey(shopID))
}
