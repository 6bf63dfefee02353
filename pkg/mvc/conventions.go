package mvc

import "fmt"

// ControllerConvention adjusts a controller descriptor while the application is built
type ControllerConvention interface {
	ApplyController(c *ControllerDescriptor) error
}

// ActionConvention adjusts an action descriptor while the application is built
type ActionConvention interface {
	ApplyAction(a *ActionDescriptor) error
}

// ParameterConvention adjusts a parameter descriptor while the application is built
type ParameterConvention interface {
	ApplyParameter(p *ParameterDescriptor) error
}

// ControllerNameConvention renames controllers. An empty result keeps the current name.
type ControllerNameConvention func(c *ControllerDescriptor) string

func (f ControllerNameConvention) ApplyController(c *ControllerDescriptor) error {
	if name := f(c); name != "" {
		c.Name = name
	}
	return nil
}

// ActionNameConvention renames actions. An empty result keeps the current name.
type ActionNameConvention func(a *ActionDescriptor) string

func (f ActionNameConvention) ApplyAction(a *ActionDescriptor) error {
	if name := f(a); name != "" {
		a.Name = name
	}
	return nil
}

// ParameterNameConvention replaces the key a parameter binds from.
// An empty result keeps the current key.
type ParameterNameConvention func(p *ParameterDescriptor) string

func (f ParameterNameConvention) ApplyParameter(p *ParameterDescriptor) error {
	if name := f(p); name != "" {
		p.BindingName = name
	}
	return nil
}

// RenameParameter returns a convention binding one parameter of one action under key
func RenameParameter(controller, method, parameter, key string) ParameterNameConvention {
	return func(p *ParameterDescriptor) string {
		if p.Action.Controller.TypeName() == controller && p.Action.MethodName == method && p.Name == parameter {
			return key
		}
		return ""
	}
}

// applyConventions runs the conventions over every descriptor, controllers first
func applyConventions(controllers []*ControllerDescriptor, conventions []any) error {
	for _, conv := range conventions {
		switch conv.(type) {
		case ControllerConvention, ActionConvention, ParameterConvention:
		default:
			return fmt.Errorf("%T does not implement a controller, action or parameter convention", conv)
		}
	}

	for _, conv := range conventions {
		cc, ok := conv.(ControllerConvention)
		if !ok {
			continue
		}
		for _, c := range controllers {
			if err := cc.ApplyController(c); err != nil {
				return fmt.Errorf("controller convention on %s: %w", c.TypeName(), err)
			}
		}
	}

	for _, conv := range conventions {
		ac, ok := conv.(ActionConvention)
		if !ok {
			continue
		}
		for _, c := range controllers {
			for _, a := range c.Actions {
				if err := ac.ApplyAction(a); err != nil {
					return fmt.Errorf("action convention on %s: %w", a.DisplayName(), err)
				}
			}
		}
	}

	for _, conv := range conventions {
		pc, ok := conv.(ParameterConvention)
		if !ok {
			continue
		}
		for _, c := range controllers {
			for _, a := range c.Actions {
				for _, p := range a.Parameters {
					if p.IsContext() {
						continue
					}
					if err := pc.ApplyParameter(p); err != nil {
						return fmt.Errorf("parameter convention on %s(%s): %w", a.DisplayName(), p.Name, err)
					}
				}
			}
		}
	}
	return nil
}
