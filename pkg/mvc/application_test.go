package mvc

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mverrors "github.com/ivaylokenov/mytested/internal/errors"
)

func TestBuild_Descriptors(t *testing.T) {
	table := newTestTable()

	normal, ok := table.ControllerFor(reflect.TypeFor[*NormalController]())
	require.True(t, ok)
	assert.Equal(t, "Normal", normal.Name)
	assert.Equal(t, "NormalController", normal.TypeName())

	_, isAction := normal.Action("Helper")
	assert.False(t, isAction)
	assert.True(t, normal.IsExcluded("Helper"))
	assert.True(t, normal.IsExcluded("Annotations"))

	overloads := normal.ActionsNamed("actionwithoverloads")
	require.Len(t, overloads, 2)

	details, ok := normal.Action("Details")
	require.True(t, ok)
	require.Len(t, details.Parameters, 2)
	assert.Equal(t, "id", details.Parameters[0].Name)
	assert.Equal(t, reflect.TypeFor[int](), details.Parameters[0].Type)
	assert.Equal(t, "name", details.Parameters[1].BindingName)

	create, _ := normal.Action("Create")
	assert.Equal(t, []string{"POST"}, create.HTTPMethods)
	assert.Equal(t, BindingBody, create.Parameters[0].Source)

	load, _ := normal.Action("Load")
	assert.True(t, load.IsAsync)
	require.Len(t, load.Parameters, 2)
	assert.True(t, load.Parameters[0].IsContext())
	assert.Len(t, load.BindableParameters(), 1)

	reports, ok := table.Controller("reports")
	require.True(t, ok)
	assert.Equal(t, "Admin", reports.Area)
	v2, _ := reports.Action("ShowV2")
	assert.Equal(t, "Show", v2.Name)
	assert.Equal(t, map[string]string{"version": "v2"}, v2.RouteValues)

	items, _ := table.Controller("Items")
	for _, a := range items.Actions {
		assert.True(t, a.AttributeRouted(), a.MethodName)
	}
}

func TestBuild_EndpointOrder(t *testing.T) {
	endpoints := newTestTable().Endpoints()

	require.NotEmpty(t, endpoints)
	assert.Equal(t, "/files/{*path}", endpoints[0].Template.String(), "negative order runs first")

	var kinds []EndpointKind
	for _, ep := range endpoints {
		kinds = append(kinds, ep.Kind)
	}
	last := kinds[len(kinds)-1]
	assert.Equal(t, ConventionalEndpoint, last)
	for i := 1; i < len(kinds); i++ {
		assert.False(t, kinds[i-1] == ConventionalEndpoint && kinds[i] == AttributeEndpoint,
			"attribute endpoints must precede conventional ones")
	}

	get, ok := newTestTable().Endpoint("GetItem")
	require.True(t, ok)
	assert.Equal(t, "/api/Items/{id:int}", get.Template.String())
	assert.Equal(t, "Items", get.Defaults.String(ControllerKey))
	assert.Equal(t, []string{"GET"}, get.HTTPMethods)
}

type NamelessParams struct{}

func (NamelessParams) Show(id int) int { return id }

type WrongParamCount struct{}

func (WrongParamCount) Annotations() []string {
	return []string{"//mvc::action Show -Params=a,b"}
}
func (WrongParamCount) Show(id int) int { return id }

type BadAnnotations struct{}

func (BadAnnotations) Annotations() []string {
	return []string{
		"//mvc::action Missing",
		"//mvc::route GET {id:nope} -Action=Show",
		"//mvc::action Show -Params=id -FromBody=body",
		"//mvc::bogus",
	}
}
func (BadAnnotations) Show(id int) int { return id }

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name     string
		app      *Application
		contains []string
	}{
		{
			name:     "unnamed parameters",
			app:      NewApplication().AddController(NamelessParams{}),
			contains: []string{"NamelessParams.Show: action has 1 parameter(s) but no -Params annotation names them"},
		},
		{
			name:     "parameter count mismatch",
			app:      NewApplication().AddController(WrongParamCount{}),
			contains: []string{"-Params lists 2 name(s) but the method has 1 bindable parameter(s)"},
		},
		{
			name: "annotation problems are all reported",
			app:  NewApplication().AddController(BadAnnotations{}),
			contains: []string{
				"annotation targets unknown method 'Missing'",
				"unknown route constraint 'nope'",
				"-FromBody names unknown parameter 'body'",
				"unknown annotation type: bogus",
			},
		},
		{
			name:     "not a struct",
			app:      NewApplication().AddController(42),
			contains: []string{"controller must be a struct or a pointer to a struct, got int"},
		},
		{
			name:     "registered twice",
			app:      NewApplication().AddController(HomeController{}).AddController(&HomeController{}),
			contains: []string{"controller HomeController is registered more than once"},
		},
		{
			name:     "invalid conventional template",
			app:      NewApplication().MapRoute("broken", "{controller}/{{action}"),
			contains: []string{"invalid route template"},
		},
		{
			name: "invalid route constraint",
			app: NewApplication().MapRoute("bad", "{id}",
				Constraints(map[string]string{"id": "range(9,1)"})),
			contains: []string{"route 'bad': constraint for 'id' is invalid"},
		},
		{
			name:     "inline and explicit default",
			app:      NewApplication().MapRoute("dup", "{id=1}", Defaults(map[string]any{"id": 2})),
			contains: []string{"parameter 'id' has both an inline and an explicit default"},
		},
		{
			name: "route name reused",
			app: NewApplication().
				MapRoute("same", "a/{id}").
				MapRoute("same", "b/{id}"),
			contains: []string{"route name 'same' is used by different templates"},
		},
		{
			name:     "unknown convention",
			app:      NewApplication(WithConventions("not a convention")).AddController(HomeController{}),
			contains: []string{"string does not implement a controller, action or parameter convention"},
		},
		{
			name:     "bad log level",
			app:      NewApplication(WithDiagnostics("loud", nil)),
			contains: []string{"unknown log level: loud"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := tt.app.Build()
			require.Error(t, err)
			assert.Nil(t, table)

			var multi *mverrors.MultipleErrors
			require.ErrorAs(t, err, &multi)
			for _, want := range tt.contains {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestMustBuild_Panics(t *testing.T) {
	assert.Panics(t, func() {
		NewApplication().AddController(NamelessParams{}).MustBuild()
	})
}

type ProductsApi struct{}

func (ProductsApi) List() []string { return nil }

func TestBuild_ControllerSuffix(t *testing.T) {
	table := NewApplication(WithControllerSuffix("Api")).
		AddController(ProductsApi{}).
		AddController(HomeController{}).
		MustBuild()

	_, ok := table.Controller("Products")
	assert.True(t, ok)
	_, ok = table.Controller("HomeController")
	assert.True(t, ok, "types without the suffix keep their full name")
}

func TestBuild_AnnotationsAtRegistration(t *testing.T) {
	table := NewApplication().
		AddController(NamelessParams{},
			"//mvc::controller -Name=Catalog",
			"//mvc::action Show -Params=productId -Name=Product").
		MapDefaultRoute().
		MustBuild()

	c, ok := table.Controller("Catalog")
	require.True(t, ok)
	a := c.ActionsNamed("Product")
	require.Len(t, a, 1)
	assert.Equal(t, "productId", a[0].Parameters[0].BindingName)
}

func TestBuild_Conventions(t *testing.T) {
	table := NewApplication(WithConventions(
		ControllerNameConvention(func(c *ControllerDescriptor) string {
			return strings.ToLower(c.Name)
		}),
		ActionNameConvention(func(a *ActionDescriptor) string {
			if a.MethodName == "ActionWithoutID" {
				return "Empty"
			}
			return ""
		}),
		RenameParameter("NormalController", "Details", "id", "detailsId"),
	)).
		AddController(&NormalController{}).
		MapDefaultRoute().
		MustBuild()

	normal, ok := table.ControllerFor(reflect.TypeFor[NormalController]())
	require.True(t, ok)
	assert.Equal(t, "normal", normal.Name)

	empty, _ := normal.Action("ActionWithoutID")
	assert.Equal(t, "Empty", empty.Name)

	details, _ := normal.Action("Details")
	assert.Equal(t, "id", details.Parameters[0].Name)
	assert.Equal(t, "detailsId", details.Parameters[0].BindingName)

	ctx := table.Resolve(MustNewRequest("GET", "/Normal/Details?detailsId=3&name=x"))
	require.True(t, ctx.IsResolved, ctx.UnresolvedError)
	assert.Equal(t, 3, ctx.ActionArguments["detailsId"])
}

func TestBuild_DuplicateBindingNames(t *testing.T) {
	_, err := NewApplication(WithConventions(
		ParameterNameConvention(func(p *ParameterDescriptor) string { return "same" }),
	)).AddController(&NormalController{}).Build()

	assert.ErrorContains(t, err, "parameters 'id' and 'name' bind from the same key 'same'")
}

func TestBuild_Diagnostics(t *testing.T) {
	var out bytes.Buffer
	table := NewApplication(WithDiagnostics("debug", &out)).
		AddController(&HomeController{}).
		MapDefaultRoute().
		MustBuild()

	assert.Contains(t, out.String(), "[INFO] route table built: 1 controller(s), 1 endpoint(s)")

	out.Reset()
	table.Resolve(MustNewRequest("GET", "/Home/About"))
	assert.Contains(t, out.String(), "[DEBUG] resolving GET /Home/About")
	assert.Contains(t, out.String(), "  [DEBUG] conventional 'default' /{controller=Home}/{action=Index}/{id?}: selected HomeController.About")
}
