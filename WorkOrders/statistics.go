package WorkOrders

import (
	"time"

	"github.com/OmarEhab007/cafm-backend-sub004/Models"
)

// Statistics is the tenant-wide work order dashboard payload.
type Statistics struct {
	Total                  int64            `json:"total"`
	ByStatus               map[string]int64 `json:"by_status"`
	ByPriority             map[string]int64 `json:"by_priority"`
	Open                   int64            `json:"open"`
	Overdue                int64            `json:"overdue"`
	CompletedThisMonth     int64            `json:"completed_this_month"`
	AverageCompletionHours float64          `json:"average_completion_hours"`
	LaborCost              float64          `json:"labor_cost"`
	MaterialCost           float64          `json:"material_cost"`
	TotalCost              float64          `json:"total_cost"`
}

// TechnicianPerformance summarizes one technician's track record. OnTimeRate
// only counts completed orders that had a scheduled end to beat.
type TechnicianPerformance struct {
	TechnicianID    uint    `json:"technician_id"`
	Name            string  `json:"name"`
	ActiveOrders    int64   `json:"active_orders"`
	CompletedOrders int64   `json:"completed_orders"`
	AverageHours    float64 `json:"average_hours"`
	TotalLaborCost  float64 `json:"total_labor_cost"`
	OnTimeRate      float64 `json:"on_time_rate"`
}

// GetStatistics aggregates the tenant's work orders for the dashboard. Cost
// figures cover completed and verified orders only, money actually spent.
func (s *Service) GetStatistics(companyID uint) (*Statistics, error) {
	stats := &Statistics{
		ByStatus:   map[string]int64{},
		ByPriority: map[string]int64{},
	}
	type bucket struct {
		Label string
		Count int64
	}
	var statusBuckets []bucket
	err := s.DB.Model(&Models.WorkOrder{}).
		Select("status AS label, COUNT(*) AS count").
		Where("company_id = ?", companyID).
		Group("status").
		Scan(&statusBuckets).Error
	if err != nil {
		return nil, err
	}
	for _, b := range statusBuckets {
		stats.ByStatus[b.Label] = b.Count
		stats.Total += b.Count
		if !IsClosed(b.Label) {
			stats.Open += b.Count
		}
	}
	var priorityBuckets []bucket
	err = s.DB.Model(&Models.WorkOrder{}).
		Select("priority AS label, COUNT(*) AS count").
		Where("company_id = ?", companyID).
		Group("priority").
		Scan(&priorityBuckets).Error
	if err != nil {
		return nil, err
	}
	for _, b := range priorityBuckets {
		stats.ByPriority[b.Label] = b.Count
	}
	now := time.Now()
	err = s.DB.Model(&Models.WorkOrder{}).
		Where("company_id = ? AND scheduled_end < ? AND status NOT IN ?",
			companyID, now, ClosedStatuses()).
		Count(&stats.Overdue).Error
	if err != nil {
		return nil, err
	}
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	err = s.DB.Model(&Models.WorkOrder{}).
		Where("company_id = ? AND actual_end >= ? AND status IN ?",
			companyID, monthStart, []string{Models.StatusCompleted, Models.StatusVerified}).
		Count(&stats.CompletedThisMonth).Error
	if err != nil {
		return nil, err
	}
	var costs struct {
		AvgHours     float64
		LaborCost    float64
		MaterialCost float64
		TotalCost    float64
	}
	err = s.DB.Model(&Models.WorkOrder{}).
		Select(`COALESCE(AVG(actual_hours), 0) AS avg_hours,
			COALESCE(SUM(labor_cost), 0) AS labor_cost,
			COALESCE(SUM(material_cost), 0) AS material_cost,
			COALESCE(SUM(total_cost), 0) AS total_cost`).
		Where("company_id = ? AND status IN ?",
			companyID, []string{Models.StatusCompleted, Models.StatusVerified}).
		Scan(&costs).Error
	if err != nil {
		return nil, err
	}
	stats.AverageCompletionHours = costs.AvgHours
	stats.LaborCost = costs.LaborCost
	stats.MaterialCost = costs.MaterialCost
	stats.TotalCost = costs.TotalCost
	return stats, nil
}

// GetTechnicianPerformance reports per-technician workload and track record,
// one row per technician on the tenant's roster.
func (s *Service) GetTechnicianPerformance(companyID uint) ([]TechnicianPerformance, error) {
	var technicians []Models.User
	err := s.DB.Where("company_id = ? AND role = ?", companyID, Models.RoleTechnician).
		Order("name ASC").
		Find(&technicians).Error
	if err != nil {
		return nil, err
	}
	results := make([]TechnicianPerformance, 0, len(technicians))
	for _, technician := range technicians {
		perf := TechnicianPerformance{
			TechnicianID: technician.ID,
			Name:         technician.Name,
		}
		err = s.DB.Model(&Models.WorkOrder{}).
			Where("company_id = ? AND technician_id = ? AND status IN ?",
				companyID, technician.ID,
				[]string{Models.StatusAssigned, Models.StatusInProgress, Models.StatusOnHold}).
			Count(&perf.ActiveOrders).Error
		if err != nil {
			return nil, err
		}
		var row struct {
			Completed int64
			AvgHours  float64
			LaborCost float64
			OnTime    int64
			Scheduled int64
		}
		err = s.DB.Model(&Models.WorkOrder{}).
			Select(`COUNT(*) AS completed,
				COALESCE(AVG(actual_hours), 0) AS avg_hours,
				COALESCE(SUM(labor_cost), 0) AS labor_cost,
				COALESCE(SUM(CASE WHEN scheduled_end IS NOT NULL AND actual_end <= scheduled_end THEN 1 ELSE 0 END), 0) AS on_time,
				COALESCE(SUM(CASE WHEN scheduled_end IS NOT NULL THEN 1 ELSE 0 END), 0) AS scheduled`).
			Where("company_id = ? AND technician_id = ? AND status IN ?",
				companyID, technician.ID,
				[]string{Models.StatusCompleted, Models.StatusVerified}).
			Scan(&row).Error
		if err != nil {
			return nil, err
		}
		perf.CompletedOrders = row.Completed
		perf.AverageHours = row.AvgHours
		perf.TotalLaborCost = row.LaborCost
		if row.Scheduled > 0 {
			perf.OnTimeRate = float64(row.OnTime) / float64(row.Scheduled)
		}
		results = append(results, perf)
	}
	return results, nil
}
