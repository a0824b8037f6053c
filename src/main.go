package main

import (
	"errors"
	"ers/src/boot"
	"ers/src/common"
	"ers/src/config"
	"ers/src/controllers"
	"ers/src/middlewares"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	_ "github.com/joho/godotenv/autoload"
)

const (
	apiPrefix string = "/api/v1"
)

var bookableDateValidatorFunc validator.Func = func(fl validator.FieldLevel) bool {
	date, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	datetime, err := time.Parse(config.TIME_PARSE_FORMAT, date)
	if err != nil {
		return false
	}
	return !time.Now().After(datetime)
}

var gtdate validator.Func = func(fl validator.FieldLevel) bool {
	date, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	datetime, err := time.Parse(config.TIME_PARSE_FORMAT, date)
	if err != nil {
		return false
	}
	field := fl.Parent().FieldByName(fl.Param())
	fieldValue, ok := field.Interface().(string)
	if !ok {
		return false
	}
	fielddatetime, err := time.Parse(config.TIME_PARSE_FORMAT, fieldValue)
	if err != nil {
		return false
	}
	return datetime.After(fielddatetime)
}

func registerValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("bookabledate", bookableDateValidatorFunc)
		v.RegisterValidation("gtdate", gtdate)
	}
}

// errorStatus maps the engine's error taxonomy onto HTTP statuses so
// clients can tell a conflict apart from bad input.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, common.ErrInvalidInterval),
		errors.Is(err, common.ErrPastStart),
		errors.Is(err, common.ErrInvalidStatus):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrEquipmentNotFound),
		errors.Is(err, common.ErrReservationNotFound),
		errors.Is(err, common.ErrUserNotFound),
		errors.Is(err, common.ErrLogNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrConflict),
		errors.Is(err, common.ErrEquipmentUnavailable),
		errors.Is(err, common.ErrNotCancelled):
		return http.StatusConflict
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusUnprocessableEntity
	}
}

func setupRouter() *gin.Engine {
	router := gin.Default()
	router.Use(middlewares.SecureHeaders)
	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, "ok")
	})
	return router
}

func maintenanceModeMiddleware(g *gin.Engine) *gin.Engine {
	g.Use(func(ctx *gin.Context) {
		mm := os.Getenv("MAINTENANCE_MODE")
		atoi, err := strconv.ParseBool(mm)
		if err == nil && atoi {
			err := errors.New("server is under maintenance")
			log.Println(err.Error())
			ctx.AbortWithStatusJSON(http.StatusServiceUnavailable, err.Error())
			return
		}
	})
	return g
}

func apiv1Group(g *gin.Engine) *gin.RouterGroup {
	apiv1 := g.Group(apiPrefix)
	return apiv1
}

func guestAuthRoutes(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	auth := apiv1.Group("/auth")
	auth.
		POST("/register", func(ctx *gin.Context) {
			user, status, err := controllers.AuthRegister(ctx)
			if err != nil {
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(status, gin.H{"data": user})
		}).
		POST("/login", func(ctx *gin.Context) {
			token, status, err := controllers.AuthLogin(ctx)
			if err != nil {
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(status, gin.H{"token": token})
		})
	return apiv1
}

func registerRoutes(router *gin.Engine) {
	guestAuthRoutes(router)
	apiv1 := apiv1Group(router)
	apiv1.Use(middlewares.AuthMiddleware)
	equipmentHandlers(apiv1)
	reservationHandlers(apiv1)
	permissionHandlers(apiv1)
	logHandlers(apiv1)
	userHandlers(apiv1)
	attachmentHandlers(apiv1)
	statsHandlers(apiv1)
}

func main() {
	registerValidators()

	boot.InitDb()
	boot.InitScheduler()

	router := setupRouter()
	router = maintenanceModeMiddleware(router)
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowOrigins = []string{os.Getenv("WEB_ORIGIN")}
	corsCfg.AllowHeaders = []string{"Authorization", "Content-Type", "Origin"}
	router.Use(cors.New(corsCfg))

	registerRoutes(router)

	host := os.Getenv("API_HOST")
	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}
	if err := router.Run(host + ":" + port); err != nil {
		log.Fatalf("Error starting server: %s\n", err.Error())
	}
}
