package progress

import (
	"fmt"
	"net/http"

	"rangeapi/database"
	"rangeapi/middleware"
	"rangeapi/models"
	"rangeapi/utils/permissions"
	"rangeapi/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

// ExportScoreboard exports the scoreboard of a group as an XLSX file
// @Summary Export a group scoreboard
// @Description Download the group scoreboard as an XLSX spreadsheet, requires instructor or staff rights
// @Tags Progress
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param group_id path string true "Group ID"
// @Success 200 {file} binary
// @Failure 401 {object} response.ErrorResponse "Unauthorized access"
// @Failure 404 {object} response.ErrorResponse "Group not found"
// @Router /groups/{group_id}/scoreboard/export [get]
// @Security Bearer
func ExportScoreboard(c *gin.Context) {
	user, err := middleware.GetUserFromRequest(c)
	if err != nil {
		return
	}

	groupID := c.Param("group_id")

	if !canExportScoreboard(&user, groupID) {
		response.Error(c, http.StatusUnauthorized, ErrNoPermissionBoard)
		return
	}

	var group models.CompetitionGroup
	if err := database.DB.First(&group, "id = ?", groupID).Error; err != nil {
		response.Error(c, http.StatusNotFound, ErrGroupNotFound)
		return
	}

	entries, err := lifecycle.Progress.Scoreboard(groupID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, ErrScoreboardFailed)
		return
	}

	xlsx := excelize.NewFile()
	defer xlsx.Close()

	sheet := "Scoreboard"
	xlsx.SetSheetName("Sheet1", sheet)

	headers := []string{"Rank", "Last Name", "First Name", "Points", "Completions"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		xlsx.SetCellValue(sheet, cell, header)
	}

	for i, entry := range entries {
		row := i + 2
		xlsx.SetCellValue(sheet, fmt.Sprintf("A%d", row), i+1)
		xlsx.SetCellValue(sheet, fmt.Sprintf("B%d", row), entry.Lastname)
		xlsx.SetCellValue(sheet, fmt.Sprintf("C%d", row), entry.Firstname)
		xlsx.SetCellValue(sheet, fmt.Sprintf("D%d", row), entry.Points)
		xlsx.SetCellValue(sheet, fmt.Sprintf("E%d", row), entry.Completions)
	}

	filename := fmt.Sprintf("scoreboard-%s.xlsx", group.Name)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")

	if err := xlsx.Write(c.Writer); err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to write spreadsheet")
	}
}

// canExportScoreboard allows instructors and staff only, unlike the read-only
// scoreboard which plain members may also view
func canExportScoreboard(user *models.User, groupID string) bool {
	if permissions.RolesHavePermission(user.Roles, permissions.GROUPS) {
		return true
	}
	instructor, err := lifecycle.Members.IsInstructor(user.ID, groupID)
	return err == nil && instructor
}
