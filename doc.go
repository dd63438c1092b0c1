/*

Package nctl is the dependency injection half of a small framework for
building HTTP services out of controllers.  The routing half is in the
nroute sub-package.

Registry

A Registry holds exactly one instance per Token.  A Token is a
reflect.Type: the type of the thing being injected.

	reg := nctl.NewRegistry()
	reg.Register(nctl.TokenOf[*Config](), cfg)
	v, err := reg.Resolve(nctl.TokenOf[*Config]())

Register never overwrites: the first registration for a Token wins.
Resolve never constructs: if nothing was registered, it returns a
*DependencyNotFoundError.

Constructors

Constructors are plain functions.  Their parameter types are their
dependencies and their first return type is the Token they provide.
They may also return an error.

	func NewUserService(repo *UserRepository, enc *PasswordEncoder) *UserService

ResolveAndRegister calls a constructor after resolving (and, if
needed, constructing) each of its dependencies.  Dependencies that
are not already registered must have been declared with Declare.
Every component is constructed at most once so dependents share the
same instance.

A dependency cycle is reported as a *CyclicDependencyError.

Manifests

A Manifest lists every component of an application along with the
role it plays (controller, service, or repository).  Load declares
the whole manifest and then constructs it.

	err := reg.Load(nctl.Manifest{
		nctl.Repository(NewUserRepository),
		nctl.Service(NewPasswordEncoder),
		nctl.Service(NewUserService),
		nctl.Controller(NewUserController),
	})

Load is typically called once at startup.  A failure there should
stop the program rather than be reported to clients.

*/
package nctl
