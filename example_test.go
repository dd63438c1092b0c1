package nctl_test

import (
	"fmt"

	"github.com/muir/nctl"
)

type UserRepository struct{}
type PasswordEncoder struct{ pepper string }
type UserService struct {
	Repo    *UserRepository
	Encoder *PasswordEncoder
}
type UserController struct{ Users *UserService }

func NewUserRepository() *UserRepository { return &UserRepository{} }

func NewPasswordEncoder() *PasswordEncoder { return &PasswordEncoder{pepper: "pepper"} }

func NewUserService(repo *UserRepository, enc *PasswordEncoder) *UserService {
	return &UserService{Repo: repo, Encoder: enc}
}

func NewUserController(users *UserService) *UserController {
	return &UserController{Users: users}
}

// Example shows a manifest being loaded.  The controller is listed
// first but its dependencies are still constructed before it.
func Example() {
	reg := nctl.NewRegistry()
	err := reg.Load(nctl.Manifest{
		nctl.Controller(NewUserController),
		nctl.Service(NewUserService),
		nctl.Service(NewPasswordEncoder),
		nctl.Repository(NewUserRepository),
	})
	if err != nil {
		fmt.Println(nctl.DetailedError(err))
		return
	}
	for _, token := range reg.Tokens() {
		fmt.Println(nctl.TokenName(token))
	}
	ctrl := nctl.MustGet[*UserController](reg)
	fmt.Println(ctrl.Users == nctl.MustGet[*UserService](reg))
	// Output: *nctl_test.UserRepository
	// *nctl_test.PasswordEncoder
	// *nctl_test.UserService
	// *nctl_test.UserController
	// true
}
