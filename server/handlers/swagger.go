package handlers

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"salesrecon/docs"
)

// SwaggerDocPath путь к сгенерированной документации
const SwaggerDocPath = "/swagger/doc.json"

// RegisterSwaggerRoutes регистрирует Swagger UI и doc.json.
// Host не задается: UI обращается к тому же адресу, с которого открыт.
func RegisterSwaggerRoutes(router gin.IRouter) {
	docs.SwaggerInfo.BasePath = "/"
	docs.SwaggerInfo.Schemes = []string{"http", "https"}

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL(SwaggerDocPath)))
}
