package service

import (
	"errors"
	"testing"

	"github.com/wuyi-mall/internal/models"
)

func (env *serviceTestEnv) firstOrderItem(t *testing.T, orderID uint) *models.OrderItem {
	t.Helper()
	items, err := env.orderRepo.ListItems(orderID)
	if err != nil || len(items) == 0 {
		t.Fatalf("load order items failed: %v (%d items)", err, len(items))
	}
	return &items[0]
}

func TestPublishCommentOnCompletedOrder(t *testing.T) {
	env := setupServiceTest(t)
	product := env.createProduct(t, 1, "50.00", 10)
	order := env.placeOrder(t, 7, product.ID, 1, nil)
	env.completeOrder(t, order.ID, 7, 1)
	item := env.firstOrderItem(t, order.ID)

	comment, err := env.comments.Publish(7, PublishCommentInput{
		OrderItemID: item.ID,
		Score:       5,
		Content:     "商品很好，物流也快",
		Images:      []string{"https://img.example.com/a.jpg", "https://img.example.com/b.jpg"},
	})
	if err != nil {
		t.Fatalf("publish comment failed: %v", err)
	}
	if comment.ProductID != product.ID || comment.ShopID != 1 || comment.OrderID != order.ID {
		t.Fatalf("comment binding wrong: %+v", comment)
	}
	if got := len(comment.ImageList()); got != 2 {
		t.Fatalf("images want 2, got %d", got)
	}

	// 商品评分统计已更新
	stored, err := env.productRepo.GetByID(product.ID)
	if err != nil || stored == nil {
		t.Fatalf("load product failed: %v", err)
	}
	if stored.CommentCount != 1 || stored.AvgScore != 5 {
		t.Fatalf("product stats want 1/5.0, got %d/%v", stored.CommentCount, stored.AvgScore)
	}

	// 同一订单项不可重复评价
	if _, err := env.comments.Publish(7, PublishCommentInput{
		OrderItemID: item.ID,
		Score:       1,
	}); !errors.Is(err, ErrCommentDuplicated) {
		t.Fatalf("want ErrCommentDuplicated, got %v", err)
	}
}

func TestPublishCommentRejections(t *testing.T) {
	env := setupServiceTest(t)
	product := env.createProduct(t, 1, "50.00", 10)
	order := env.placeOrder(t, 7, product.ID, 1, nil)
	item := env.firstOrderItem(t, order.ID)

	// 订单未完成
	if _, err := env.comments.Publish(7, PublishCommentInput{
		OrderItemID: item.ID,
		Score:       5,
	}); !errors.Is(err, ErrCommentNotAllowed) {
		t.Fatalf("placed order: want ErrCommentNotAllowed, got %v", err)
	}

	env.completeOrder(t, order.ID, 7, 1)

	// 非下单人
	if _, err := env.comments.Publish(8, PublishCommentInput{
		OrderItemID: item.ID,
		Score:       5,
	}); !errors.Is(err, ErrOrderNotOwned) {
		t.Fatalf("foreign user: want ErrOrderNotOwned, got %v", err)
	}

	// 订单项不存在
	if _, err := env.comments.Publish(7, PublishCommentInput{
		OrderItemID: 9999,
		Score:       5,
	}); !errors.Is(err, ErrOrderItemNotFound) {
		t.Fatalf("missing item: want ErrOrderItemNotFound, got %v", err)
	}

	// 评分越界
	for _, score := range []int{0, 6} {
		if _, err := env.comments.Publish(7, PublishCommentInput{
			OrderItemID: item.ID,
			Score:       score,
		}); !errors.Is(err, ErrValidation) {
			t.Fatalf("score %d: want ErrValidation, got %v", score, err)
		}
	}
}

func TestCommentListsAndStats(t *testing.T) {
	env := setupServiceTest(t)
	user := &models.User{Username: "wangxiaoming", Role: "customer", Status: 1, Password: "x"}
	if err := env.userRepo.Create(user); err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	product := env.createProduct(t, 1, "50.00", 10)

	firstOrder := env.placeOrder(t, user.ID, product.ID, 1, nil)
	env.completeOrder(t, firstOrder.ID, user.ID, 1)
	secondOrder := env.placeOrder(t, user.ID, product.ID, 1, nil)
	env.completeOrder(t, secondOrder.ID, user.ID, 1)

	if _, err := env.comments.Publish(user.ID, PublishCommentInput{
		OrderItemID: env.firstOrderItem(t, firstOrder.ID).ID,
		Score:       5,
		Content:     "非常满意",
	}); err != nil {
		t.Fatalf("publish first comment failed: %v", err)
	}
	if _, err := env.comments.Publish(user.ID, PublishCommentInput{
		OrderItemID: env.firstOrderItem(t, secondOrder.ID).ID,
		Score:       3,
	}); err != nil {
		t.Fatalf("publish second comment failed: %v", err)
	}

	// 本人视角不脱敏
	mine, total, err := env.comments.ListMine(user.ID, 1, 20)
	if err != nil {
		t.Fatalf("list mine failed: %v", err)
	}
	if total != 2 || len(mine) != 2 {
		t.Fatalf("mine want 2, got total=%d len=%d", total, len(mine))
	}
	if mine[0].Username != "wangxiaoming" {
		t.Fatalf("own view should keep username, got %s", mine[0].Username)
	}

	// 公开视角脱敏
	public, _, err := env.comments.ListByProduct(product.ID, 1, 20)
	if err != nil {
		t.Fatalf("list by product failed: %v", err)
	}
	if public[0].Username != "w**********g" {
		t.Fatalf("public view should mask username, got %s", public[0].Username)
	}

	// 商家视角支持评分过滤
	score := 3
	shop, shopTotal, err := env.comments.ListByShop(1, 1, 20, &score)
	if err != nil {
		t.Fatalf("list by shop failed: %v", err)
	}
	if shopTotal != 1 || shop[0].Score != 3 {
		t.Fatalf("shop filter want single score-3 comment, got total=%d", shopTotal)
	}

	// 统计均分 (5+3)/2 = 4
	stats, err := env.comments.ProductStats(product.ID)
	if err != nil {
		t.Fatalf("product stats failed: %v", err)
	}
	if stats.CommentCount != 2 || stats.AvgScore != 4 {
		t.Fatalf("stats want 2/4.0, got %d/%v", stats.CommentCount, stats.AvgScore)
	}
	stored, _ := env.productRepo.GetByID(product.ID)
	if stored.CommentCount != 2 || stored.AvgScore != 4 {
		t.Fatalf("product stats want 2/4.0, got %d/%v", stored.CommentCount, stored.AvgScore)
	}
}

func TestMaskUsername(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"a", "a"},
		{"ab", "a*"},
		{"abc", "a*c"},
		{"alice", "a***e"},
		{"王小明", "王*明"},
	}
	for _, tc := range cases {
		if got := MaskUsername(tc.in); got != tc.want {
			t.Errorf("MaskUsername(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
