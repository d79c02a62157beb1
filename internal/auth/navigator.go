package auth

// Navigator moves the user to the login entry point.
type Navigator interface {
	GoToLogin()
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func()

// GoToLogin calls f.
func (f NavigatorFunc) GoToLogin() {
	f()
}

var nopNavigator = NavigatorFunc(func() {})
