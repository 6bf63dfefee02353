package routing_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/ivaylokenov/mytested/pkg/mvc"
)

type HomeController struct{}

func (c *HomeController) Index() string { return "home" }
func (c *HomeController) About() string { return "about" }

type NormalController struct{}

func (c *NormalController) Annotations() []string {
	return []string{
		"//mvc::action ActionWithOverloads -Params=id",
		"//mvc::action ActionWithoutID -Name=ActionWithOverloads",
		"//mvc::action Details -Params=id,name",
		"//mvc::action Create -Params=model -FromBody=model -Methods=POST",
		"//mvc::action Search -Params=query,page -FromQuery=query,page",
		"//mvc::action Load -Params=id",
		"//mvc::action Helper -NonAction",
	}
}

func (c *NormalController) ActionWithOverloads(id int) int           { return id }
func (c *NormalController) ActionWithoutID() int                     { return 0 }
func (c *NormalController) Details(id int, name string) string       { return name }
func (c *NormalController) Create(model CreateModel) CreateModel     { return model }
func (c *NormalController) Search(query []string, page int) []string { return query }
func (c *NormalController) Load(ctx context.Context, id int) *mvc.Task[int] {
	return mvc.Completed(id)
}
func (c *NormalController) Helper() {}

type CreateModel struct {
	Name string   `json:"name" validate:"required"`
	Tags []string `json:"tags"`
}

type ItemsController struct{}

func (c *ItemsController) Annotations() []string {
	return []string{
		"//mvc::controller -Route=api/[controller]",
		"//mvc::action Get -Params=id",
		"//mvc::route GET {id:int} -Action=Get -Name=GetItem",
		"//mvc::action Create -Params=item -FromBody=item",
		`//mvc::route POST "" -Action=Create`,
		"//mvc::route GET /Home/Index -Action=Override",
	}
}

func (c *ItemsController) Get(id int) int                 { return id }
func (c *ItemsController) Create(item CreateModel) string { return item.Name }
func (c *ItemsController) Override() string               { return "override" }

type ReportsController struct{}

func (c *ReportsController) Annotations() []string {
	return []string{
		"//mvc::controller -Area=Admin",
		"//mvc::action Show -Params=year",
		"//mvc::action ShowV2 -Name=Show -Params=year -RouteValues=version:v2",
	}
}

func (c *ReportsController) Show(year int) int   { return year }
func (c *ReportsController) ShowV2(year int) int { return year }

// StatusBase is embedded by controllers sharing health endpoints
type StatusBase struct{}

func (StatusBase) Health() string { return "ok" }

type AuditBase struct{}

func (b *AuditBase) Audit(id int) int { return id }

type StatusController struct {
	StatusBase
	AuditBase
}

func (c *StatusController) Annotations() []string {
	return []string{"//mvc::action Audit -Params=id"}
}

type PingController struct {
	StatusBase
}

type PagerController struct{}

func (c *PagerController) Annotations() []string {
	return []string{"//mvc::action Show -Params=page"}
}

func (c *PagerController) Show(page uint) uint { return page }

type UnregisteredController struct{}

func (c *UnregisteredController) Index() {}

func StaticAction() int { return 0 }

var (
	tableOnce sync.Once
	table     *mvc.RouteTable
)

func testTable() *mvc.RouteTable {
	tableOnce.Do(func() {
		table = mvc.NewApplication().
			AddController(&HomeController{}).
			AddController(&NormalController{}).
			AddController(&ItemsController{}).
			AddController(&ReportsController{}).
			MapAreaRoute("admin", "Admin", "admin/{controller}/{action}/{year:int}").
			MapRoute("versioned", "v/{version}/{controller}/{action}/{year:int}",
				mvc.Defaults(map[string]any{mvc.AreaKey: "Admin"})).
			MapRoute("blog", "blog/{slug}",
				mvc.Defaults(map[string]any{mvc.ControllerKey: "Home", mvc.ActionKey: "About"}),
				mvc.DataTokens(map[string]any{"section": "blog"})).
			MapDefaultRoute().
			MustBuild()
	})
	return table
}

// recorder captures failures instead of stopping the test
type recorder struct {
	messages []string
	stopped  int
}

func (r *recorder) Errorf(format string, args ...any) {
	r.messages = append(r.messages, fmt.Sprintf(format, args...))
}

func (r *recorder) FailNow() { r.stopped++ }

func (r *recorder) Helper() {}
