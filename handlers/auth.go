package handlers

import "github.com/gin-gonic/gin"

// Me returns the authenticated user
func Me(c *gin.Context) {
	user, ok := caller(c)
	if !ok {
		return
	}
	succeed(c, gin.H{"user": user})
}
