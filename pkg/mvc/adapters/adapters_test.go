package adapters_test

import (
	"github.com/ivaylokenov/mytested/pkg/mvc"
)

type OrdersController struct{}

func (c *OrdersController) Annotations() []string {
	return []string{
		"//mvc::action Details -Params=id",
		"//mvc::action Create -Params=order -FromBody=order -Methods=POST",
		"//mvc::action Search -Params=tag -FromQuery=tag",
	}
}

func (c *OrdersController) Details(id int) int           { return id }
func (c *OrdersController) Create(order Order) Order     { return order }
func (c *OrdersController) Search(tag []string) []string { return tag }

type Order struct {
	Item string `json:"item" validate:"required"`
	Qty  int    `json:"qty" validate:"gte=1"`
}

func ordersTable() *mvc.RouteTable {
	return mvc.NewApplication().
		AddController(&OrdersController{}).
		MapDefaultRoute().
		MustBuild()
}
