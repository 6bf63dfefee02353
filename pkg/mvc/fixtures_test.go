package mvc

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
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
		"//mvc::action Filter -Params=filter",
		"//mvc::action Load -Params=id",
		"//mvc::action Helper -NonAction",
	}
}

func (c *NormalController) ActionWithOverloads(id int) int { return id }
func (c *NormalController) ActionWithoutID() int           { return 0 }
func (c *NormalController) Details(id int, name string) string {
	return name
}
func (c *NormalController) Create(model CreateModel) (CreateModel, error) {
	if model.Name == "fail" {
		return model, errors.New("create failed")
	}
	return model, nil
}
func (c *NormalController) Search(query []string, page int) int   { return len(query) * page }
func (c *NormalController) Filter(filter FilterModel) FilterModel { return filter }
func (c *NormalController) Load(ctx context.Context, id int) *Task[int] {
	return Go(func() (int, error) {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		return id * 2, nil
	})
}
func (c *NormalController) Helper() {}

type CreateModel struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
	Age   int    `json:"age" validate:"gte=0,lte=150"`
}

type FilterModel struct {
	Term  string    `form:"term"`
	Limit int       `form:"limit" validate:"lte=100"`
	Since time.Time `form:"since"`
}

type ItemsController struct{}

func (c *ItemsController) Annotations() []string {
	return []string{
		"//mvc::controller -Route=api/[controller]",
		"//mvc::action Get -Params=id",
		"//mvc::route GET {id:int} -Action=Get -Name=GetItem",
		"//mvc::action ByCode -Params=code",
		"//mvc::route GET {code:guid} -Action=ByCode",
		"//mvc::action Create -Params=item -FromBody=item",
		`//mvc::route POST "" -Action=Create`,
		"//mvc::action Files -Params=path",
		"//mvc::route GET /files/{*path} -Action=Files -Order=-1",
		"//mvc::route GET /Home/Index -Action=Override",
	}
}

func (c *ItemsController) Get(id int) int                 { return id }
func (c *ItemsController) ByCode(code uuid.UUID) string   { return code.String() }
func (c *ItemsController) Create(item CreateModel) string { return item.Name }
func (c *ItemsController) Files(path string) string       { return path }
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

func newTestTable() *RouteTable {
	return NewApplication().
		AddController(&HomeController{}).
		AddController(&NormalController{}).
		AddController(&ItemsController{}).
		AddController(ReportsController{}).
		MapAreaRoute("admin", "Admin", "admin/{controller}/{action}/{year:int}").
		MapRoute("versioned", "v/{version}/{controller}/{action}/{year:int}",
			Defaults(map[string]any{AreaKey: "Admin"})).
		MapRoute("blog", "blog/{slug:regex(^[a-z-]+$)}",
			Defaults(map[string]any{ControllerKey: "Home", ActionKey: "About"}),
			DataTokens(map[string]any{"section": "blog"})).
		MapDefaultRoute().
		MustBuild()
}
