package account

import "github.com/dalemusser/busybee/internal/domain/models"

type registerCourseRequest struct {
	CourseID   string `json:"courseId" validate:"required,max=64"`
	CourseName string `json:"courseName" validate:"required,max=200"`
}

// itemRequest is the body of the add and remove endpoints for both lists.
type itemRequest struct {
	CourseID string `json:"courseId" validate:"required,max=64"`
	Kind     string `json:"kind" validate:"required,itemkind"`
	ItemID   string `json:"itemId" validate:"required,objectid"`
}

type checkRequest struct {
	CourseID string   `json:"courseId" validate:"required,max=64"`
	Kind     string   `json:"kind" validate:"omitempty,itemkind"`
	ItemIDs  []string `json:"itemIds" validate:"required,max=200,dive,objectid"`
}

type checkResponse struct {
	Results map[string]bool `json:"results"`
}

type favoritesResponse struct {
	Favorites []models.Favorite `json:"favorites"`
}

type recentlyViewedResponse struct {
	RecentlyViewed []models.RecentlyViewed `json:"recentlyViewed"`
}
