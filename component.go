package nctl

// Role records what kind of injectable a component is.  The registry
// reports it in logs but does not otherwise consult it.
type Role string

const (
	RoleController Role = "controller"
	RoleService    Role = "service"
	RoleRepository Role = "repository"
)

// Component is an entry in a Manifest: a constructor marked with the
// role it plays.
type Component struct {
	Role        Role
	Constructor interface{}
}

// Controller marks a constructor as providing a controller
func Controller(constructor interface{}) Component {
	return Component{Role: RoleController, Constructor: constructor}
}

// Service marks a constructor as providing a service
func Service(constructor interface{}) Component {
	return Component{Role: RoleService, Constructor: constructor}
}

// Repository marks a constructor as providing a repository
func Repository(constructor interface{}) Component {
	return Component{Role: RoleRepository, Constructor: constructor}
}

// Manifest is the explicit list of every injectable component in an
// application.  Order does not matter for correctness: dependencies
// are constructed on demand.  Order does determine construction order
// for components that do not depend on each other.
type Manifest []Component

// Append returns a new Manifest with more components added.  The
// original is not modified.
func (m Manifest) Append(components ...Component) Manifest {
	n := make(Manifest, 0, len(m)+len(components))
	n = append(n, m...)
	return append(n, components...)
}
