package main

import "usta_backend/internal/app"

func main() {
	app.Run()
}
