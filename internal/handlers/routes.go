package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/projecthub/internal/middleware"
)

// Handlers groups the endpoint handlers mounted under /api.
type Handlers struct {
	Auth    *AuthHandler
	Project *ProjectHandler
	Task    *TaskHandler
	Note    *NoteHandler
	Board   *BoardHandler
}

// RegisterRoutes mounts the API routes on r. Session middleware must already
// be installed on r.
func RegisterRoutes(r gin.IRouter, h Handlers) {
	api := r.Group("/api")

	// Auth routes (public)
	auth := api.Group("/auth")
	{
		auth.POST("/signup", h.Auth.Signup)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/logout", h.Auth.Logout)
		auth.GET("/me", middleware.RequireAuth(), h.Auth.GetCurrentUser)
	}

	users := api.Group("/users")
	{
		users.GET("/search", middleware.RequireAuth(), h.Auth.SearchUsers)
		users.PUT("/me", middleware.RequireAuth(), h.Auth.UpdateProfile)
		users.GET("/:username", h.Auth.GetUserByUsername)
	}

	// Project routes (protected)
	projects := api.Group("/projects")
	projects.Use(middleware.RequireAuth())
	{
		projects.POST("", h.Project.CreateProject)
		projects.GET("", h.Project.ListProjects)
		projects.GET("/slug/:slug", h.Project.GetProjectBySlug)

		byID := projects.Group("/:id", middleware.RequireIDParams("id"))
		byID.PATCH("", h.Project.UpdateProject)
		byID.DELETE("", h.Project.DeleteProject)
		byID.PUT("/collaborators", h.Project.ReconcileCollaborators)
		byID.POST("/leave", h.Project.LeaveProject)
		byID.DELETE("/members/:user_id", middleware.RequireIDParams("user_id"), h.Project.RemoveMember)

		byID.GET("/tasks", h.Task.ListTasks)
		byID.POST("/tasks", h.Task.CreateTask)
		byID.POST("/tasks/suggest", h.Task.SuggestTasks)

		byID.GET("/note", h.Note.GetNote)
		byID.PUT("/note", h.Note.SaveNote)

		byID.GET("/board", h.Board.GetBoard)
		byID.POST("/board/images", h.Board.AddImage)
	}

	// Task routes (protected)
	tasks := api.Group("/tasks/:id", middleware.RequireAuth(), middleware.RequireIDParams("id"))
	{
		tasks.PATCH("/complete", h.Task.ToggleComplete)
		tasks.PATCH("", h.Task.UpdateTask)
		tasks.DELETE("", h.Task.DeleteTask)
	}

	api.DELETE("/notes/:id", middleware.RequireAuth(), middleware.RequireIDParams("id"), h.Note.DeleteNote)
	api.DELETE("/board/images/:id", middleware.RequireAuth(), middleware.RequireIDParams("id"), h.Board.DeleteImage)
}
