package providers

// Navigator moves the presentation surface between its entry points.
type Navigator interface {
	// ToLogin shows the login surface
	ToLogin()

	// ToDefault shows the default landing surface
	ToDefault()
}
