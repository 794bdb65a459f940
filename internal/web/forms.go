package web

// Form-encoded request payloads, one struct per POST route.

type loginForm struct {
	Email string `form:"email"`
}

type signupForm struct {
	Name  string `form:"name"`
	Email string `form:"email"`
}

type ticketCreateForm struct {
	Title       string `form:"title"`
	Description string `form:"description"`
	Priority    string `form:"priority"`
}

type ticketUpdateForm struct {
	Title       string `form:"title"`
	Description string `form:"description"`
	Status      string `form:"status"`
	Priority    string `form:"priority"`
}

type ticketDeleteForm struct {
	ID string `form:"id"`
}
